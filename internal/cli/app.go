// Package cli implements the jobtrail command line client on top of the
// pipeline coordinator, the REST job store client and the offline snapshot.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	dbfs "github.com/garnizeh/jobtrail/db"
	"github.com/garnizeh/jobtrail/internal/config"
	"github.com/garnizeh/jobtrail/internal/db"
	"github.com/garnizeh/jobtrail/internal/pipeline"
	"github.com/garnizeh/jobtrail/internal/repository/sqlite"
	"github.com/garnizeh/jobtrail/pkg/jobsapi"
	"github.com/garnizeh/jobtrail/pkg/models"
)

var (
	ErrUsage      = errors.New("usage")
	ErrOffline    = errors.New("command needs the job store; run it without -offline")
	ErrNoSnapshot = errors.New("no offline snapshot yet; run a read command while online first")
)

type Options struct {
	Out    io.Writer
	Err    io.Writer
	Logger *slog.Logger
	// Offline serves read commands from the snapshot and refuses writes.
	Offline   bool
	Version   string
	BuildTime string
	Clock     func() time.Time
	// HTTPClient replaces the default transport of the REST client.
	HTTPClient *http.Client
	// Notifier receives move and edit outcomes. Nil prints them styled to Err.
	Notifier pipeline.Notifier
}

// App holds the lazily opened dependencies of one CLI invocation.
type App struct {
	cfg   *config.Config
	opts  Options
	theme theme

	client *jobsapi.Client
	coord  *pipeline.Coordinator
	db     *db.DB
	snaps  *sqlite.SQLiteRepo
}

func New(cfg *config.Config, opts Options) *App {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &App{cfg: cfg, opts: opts, theme: newTheme(opts.Out)}
}

func (a *App) now() time.Time { return a.opts.Clock() }

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage(a.opts.Err)
		return ErrUsage
	}
	name, rest := args[0], args[1:]
	if name == "help" || name == "-h" || name == "--help" {
		a.usage(a.opts.Out)
		return nil
	}
	for _, c := range commands {
		if c.name == name {
			a.opts.Logger.Debug("cli: running command", slog.String("command", name), slog.Bool("offline", a.opts.Offline))
			return c.run(a, ctx, rest)
		}
	}
	a.usage(a.opts.Err)
	return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
}

// Close releases everything Run opened. It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	if a.coord != nil {
		errs = append(errs, a.coord.Close())
	}
	if a.client != nil {
		errs = append(errs, a.client.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db, a.snaps = nil, nil
	}
	return errors.Join(errs...)
}

func (a *App) api() (*jobsapi.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	var (
		c   *jobsapi.Client
		err error
	)
	if a.opts.HTTPClient != nil {
		c, err = jobsapi.NewClient(a.cfg.API, a.opts.HTTPClient)
	} else {
		c, err = jobsapi.NewDefaultClient(a.cfg.API)
	}
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	a.client = c
	return c, nil
}

func (a *App) coordinator() (*pipeline.Coordinator, error) {
	if a.coord != nil {
		return a.coord, nil
	}
	c, err := a.api()
	if err != nil {
		return nil, err
	}
	notifier := a.opts.Notifier
	if notifier == nil {
		notifier = pipeline.NotifierFunc(a.notify)
	}
	a.coord = pipeline.NewCoordinator(nil, c, notifier, a.opts.Logger, a.now)
	return a.coord, nil
}

// online returns a coordinator whose local collection mirrors the store.
func (a *App) online(ctx context.Context) (*pipeline.Coordinator, error) {
	if a.opts.Offline {
		return nil, ErrOffline
	}
	coord, err := a.coordinator()
	if err != nil {
		return nil, err
	}
	jobs, err := coord.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	a.saveSnapshot(ctx, jobs)
	return coord, nil
}

// load returns the collection for read-only commands: from the store when
// online, from the snapshot when offline or when the store is unreachable.
func (a *App) load(ctx context.Context) ([]models.Job, error) {
	if a.opts.Offline {
		return a.loadSnapshot(ctx)
	}
	jobs, err := a.fetch(ctx)
	if err == nil {
		return jobs, nil
	}
	if ctx.Err() != nil || !errors.Is(err, pipeline.ErrTransport) {
		return nil, err
	}
	a.opts.Logger.Warn("cli: job store unreachable, using snapshot", slog.Any("err", err))
	jobs, serr := a.loadSnapshot(ctx)
	if serr != nil {
		return nil, err
	}
	return jobs, nil
}

func (a *App) fetch(ctx context.Context) ([]models.Job, error) {
	coord, err := a.coordinator()
	if err != nil {
		return nil, err
	}
	jobs, err := coord.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	a.saveSnapshot(ctx, jobs)
	return jobs, nil
}

func (a *App) snapshots(ctx context.Context) (*sqlite.SQLiteRepo, error) {
	if a.snaps != nil {
		return a.snaps, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.SnapshotPath), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	d, err := db.New(ctx, a.cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		d.Close()
		return nil, fmt.Errorf("migrate snapshot: %w", err)
	}
	a.db = d
	a.snaps = sqlite.New(d, a.opts.Logger)
	return a.snaps, nil
}

// saveSnapshot failures are logged only; the store stays the system of record.
func (a *App) saveSnapshot(ctx context.Context, jobs []models.Job) {
	repo, err := a.snapshots(ctx)
	if err == nil {
		err = repo.SaveSnapshot(ctx, jobs, a.now())
	}
	if err != nil {
		a.opts.Logger.Warn("cli: snapshot not saved", slog.Any("err", err))
	}
}

func (a *App) loadSnapshot(ctx context.Context) ([]models.Job, error) {
	repo, err := a.snapshots(ctx)
	if err != nil {
		return nil, err
	}
	jobs, at, err := repo.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		return nil, ErrNoSnapshot
	}
	fmt.Fprintln(a.opts.Err, a.theme.muted.Render(fmt.Sprintf("offline: snapshot from %s", at.Local().Format("2006-01-02 15:04"))))
	return jobs, nil
}

// snapshotHeader prints the active job count per stage held in the snapshot.
func (a *App) snapshotHeader(ctx context.Context) error {
	repo, err := a.snapshots(ctx)
	if err != nil {
		return err
	}
	counts, err := repo.SnapshotCounts(ctx)
	if err != nil {
		return err
	}
	var (
		total int
		parts []string
	)
	for _, s := range models.AllStages() {
		if n := counts[s]; n > 0 {
			total += n
			parts = append(parts, fmt.Sprintf("%s %d", s.Label(), n))
		}
	}
	fmt.Fprintln(a.opts.Err, a.theme.muted.Render(fmt.Sprintf("snapshot: %d active jobs (%s)", total, strings.Join(parts, ", "))))
	return nil
}

func (a *App) notify(n pipeline.Notification) {
	fmt.Fprintln(a.opts.Err, a.theme.notification(n))
}
