package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/garnizeh/jobtrail/internal/analytics"
	"github.com/garnizeh/jobtrail/internal/followup"
	"github.com/garnizeh/jobtrail/internal/jobfilter"
	"github.com/garnizeh/jobtrail/internal/pipeline"
	"github.com/garnizeh/jobtrail/pkg/models"
	"github.com/garnizeh/jobtrail/pkg/repository"
)

type command struct {
	name    string
	args    string
	summary string
	run     func(a *App, ctx context.Context, args []string) error
}

var commands = []command{
	{"list", "[-q text] [-stage s] [-interest n] [-location l] [-archived]", "list jobs matching the filters", (*App).cmdList},
	{"board", "", "show the pipeline board", (*App).cmdBoard},
	{"stats", "[-months n]", "show pipeline analytics", (*App).cmdStats},
	{"calendar", "[-days n] [-past n]", "list upcoming events and overdue follow-ups", (*App).cmdCalendar},
	{"timeline", "[-q text]", "show the activity feed, newest first", (*App).cmdTimeline},
	{"contacts", "<id>", "show contacts of a job and when to follow up", (*App).cmdContacts},
	{"move", "<id> <from> <to>", "move a job to another stage", (*App).cmdMove},
	{"create", "-company c -role r [...]", "add a job", (*App).cmdCreate},
	{"archive", "<id>", "archive a job", (*App).cmdArchive},
	{"delete", "<id>", "delete a job permanently", (*App).cmdDelete},
	{"follow-up", "<id> <YYYY-MM-DD>", "schedule a follow-up", (*App).cmdFollowUp},
	{"health", "", "check the job store API", (*App).cmdHealth},
	{"version", "", "print version information", (*App).cmdVersion},
}

func (a *App) usage(w io.Writer) {
	fmt.Fprintln(w, "usage: jobtrail [-config file] [-offline] <command> [args]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %-55s %s\n", c.name, c.args, c.summary)
	}
}

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.opts.Err)
	return fs
}

// positional checks that exactly n arguments remain after flag parsing.
func positional(fs *flag.FlagSet, args []string, n int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if fs.NArg() != n {
		return nil, fmt.Errorf("%w: %s expects %d argument(s), got %d", ErrUsage, fs.Name(), n, fs.NArg())
	}
	return fs.Args(), nil
}

func (a *App) cmdList(ctx context.Context, args []string) error {
	v := url.Values{}
	fs := a.flags("list")
	fs.Func("q", "search company or role", func(s string) error { v.Set(jobfilter.ParamSearch, s); return nil })
	fs.Func("stage", "stage filter, repeatable or comma separated", func(s string) error { v.Add(jobfilter.ParamStage, s); return nil })
	fs.Func("interest", "interest score 1-5 or all", func(s string) error { v.Set(jobfilter.ParamInterest, s); return nil })
	fs.Func("location", "remote, hybrid, onsite or all", func(s string) error { v.Set(jobfilter.ParamLocation, s); return nil })
	archived := fs.Bool("archived", false, "show archived jobs instead of active ones")
	if _, err := positional(fs, args, 0); err != nil {
		return err
	}
	if *archived {
		v.Set(jobfilter.ParamArchived, "true")
	}
	crit, err := jobfilter.ParseCriteria(v)
	if err != nil {
		return err
	}

	jobs, err := a.load(ctx)
	if err != nil {
		return err
	}
	shown := jobfilter.Filter(jobs, crit)
	fmt.Fprintln(a.opts.Out, a.theme.jobTable(shown))
	fmt.Fprintln(a.opts.Out, a.theme.muted.Render(fmt.Sprintf("%d of %d jobs", len(shown), jobfilter.Total(jobs, crit.ShowArchived))))
	return nil
}

func (a *App) cmdBoard(ctx context.Context, args []string) error {
	if _, err := positional(a.flags("board"), args, 0); err != nil {
		return err
	}
	jobs, err := a.load(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.opts.Out, a.theme.board(jobs))
	return nil
}

func (a *App) cmdStats(ctx context.Context, args []string) error {
	fs := a.flags("stats")
	months := fs.Int("months", 6, "months of history in the activity chart")
	if _, err := positional(fs, args, 0); err != nil {
		return err
	}
	if *months < 1 {
		return fmt.Errorf("%w: -months must be at least 1", ErrUsage)
	}
	jobs, err := a.load(ctx)
	if err != nil {
		return err
	}

	if a.opts.Offline {
		if err := a.snapshotHeader(ctx); err != nil {
			return err
		}
	}

	w := a.opts.Out
	fmt.Fprintln(w, a.theme.stats(analytics.Summarize(jobs)))
	fmt.Fprintln(w, a.theme.sectionTitle("Pipeline"))
	fmt.Fprintln(w, a.theme.distribution(analytics.StageDistribution(jobs)))
	fmt.Fprintln(w, a.theme.sectionTitle("Work type"))
	fmt.Fprintln(w, a.theme.locations(analytics.ByLocationType(jobs)))
	fmt.Fprintln(w, a.theme.sectionTitle("Interest"))
	fmt.Fprintln(w, a.theme.interest(analytics.ByInterestScore(jobs)))
	fmt.Fprintln(w, a.theme.sectionTitle("Activity"))
	fmt.Fprintln(w, a.theme.monthly(analytics.Monthly(jobs, a.now(), *months)))
	if offers := analytics.Offers(jobs); len(offers) > 0 {
		fmt.Fprintln(w, a.theme.sectionTitle("Offers"))
		fmt.Fprintln(w, a.theme.jobTable(offers))
	}
	fmt.Fprintln(w, a.theme.sectionTitle("Recent"))
	fmt.Fprintln(w, a.theme.jobTable(analytics.Recent(jobs, 5)))
	return nil
}

func (a *App) cmdCalendar(ctx context.Context, args []string) error {
	fs := a.flags("calendar")
	days := fs.Int("days", 14, "days ahead to show, starting today")
	past := fs.Int("past", 0, "days back to include")
	if _, err := positional(fs, args, 0); err != nil {
		return err
	}
	if *days < 1 || *past < 0 {
		return fmt.Errorf("%w: -days must be positive and -past not negative", ErrUsage)
	}
	jobs, err := a.load(ctx)
	if err != nil {
		return err
	}

	now := a.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from := today.AddDate(0, 0, -*past)
	to := today.AddDate(0, 0, *days)

	var events []followup.Event
	for ev := range followup.Agenda(jobs, now, from, to) {
		events = append(events, ev)
	}
	slices.SortStableFunc(events, func(x, y followup.Event) int { return x.Date.Compare(y.Date) })
	if len(events) == 0 {
		fmt.Fprintln(a.opts.Out, a.theme.muted.Render("No events between "+from.Format(time.DateOnly)+" and "+to.AddDate(0, 0, -1).Format(time.DateOnly)))
		return nil
	}
	fmt.Fprintln(a.opts.Out, a.theme.calendar(events))
	return nil
}

func (a *App) cmdTimeline(ctx context.Context, args []string) error {
	fs := a.flags("timeline")
	q := fs.String("q", "", "search company or role")
	if _, err := positional(fs, args, 0); err != nil {
		return err
	}
	jobs, err := a.load(ctx)
	if err != nil {
		return err
	}
	items := followup.Feed(jobs, *q)
	if len(items) == 0 {
		fmt.Fprintln(a.opts.Out, a.theme.muted.Render("No activity yet"))
		return nil
	}
	fmt.Fprintln(a.opts.Out, a.theme.feed(items))
	return nil
}

func (a *App) cmdContacts(ctx context.Context, args []string) error {
	rest, err := positional(a.flags("contacts"), args, 1)
	if err != nil {
		return err
	}
	jobs, err := a.load(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(jobs, func(j models.Job) bool { return j.ID == rest[0] })
	if i < 0 {
		return fmt.Errorf("job %s: %w", rest[0], repository.ErrNotFound)
	}
	job := jobs[i]
	fmt.Fprintln(a.opts.Out, a.theme.title.Render(job.Company+" - "+job.Role))
	contacts := followup.Contacts(job, a.now())
	if len(contacts) == 0 {
		fmt.Fprintln(a.opts.Out, a.theme.muted.Render("No contacts"))
		return nil
	}
	fmt.Fprintln(a.opts.Out, a.theme.contacts(contacts))
	return nil
}

func (a *App) cmdMove(ctx context.Context, args []string) error {
	rest, err := positional(a.flags("move"), args, 3)
	if err != nil {
		return err
	}
	from, err := models.ParseStage(rest[1])
	if err != nil {
		return err
	}
	to, err := models.ParseStage(rest[2])
	if err != nil {
		return err
	}
	coord, err := a.online(ctx)
	if err != nil {
		return err
	}
	res, err := coord.MoveJob(ctx, pipeline.MoveJobCommand{JobID: rest[0], From: from, To: to})
	if err != nil {
		return err
	}
	a.saveSnapshot(ctx, coord.Store().List())
	fmt.Fprintf(a.opts.Out, "%s  %s\n", res.Job.ID, a.theme.stage(res.Job.Stage))
	return nil
}

func (a *App) cmdCreate(ctx context.Context, args []string) error {
	var p models.JobPatch
	fs := a.flags("create")
	str := func(dst **string) func(string) error {
		return func(s string) error { *dst = models.Ptr(s); return nil }
	}
	fs.Func("company", "company name (required)", str(&p.Company))
	fs.Func("role", "role title (required)", str(&p.Role))
	fs.Func("location", "city or region", str(&p.Location))
	fs.Func("url", "posting url", str(&p.URL))
	fs.Func("salary", "salary as free text", str(&p.Salary))
	fs.Func("notes", "notes", str(&p.Notes))
	fs.Func("type", "remote, hybrid or onsite", func(s string) error {
		l, err := models.ParseLocationType(s)
		if err != nil {
			return err
		}
		p.LocationType = &l
		return nil
	})
	fs.Func("stage", "initial stage", func(s string) error {
		st, err := models.ParseStage(s)
		if err != nil {
			return err
		}
		p.Stage = &st
		return nil
	})
	fs.Func("interest", "interest score 1-5", func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil || !models.ValidInterest(n) {
			return fmt.Errorf("%w: %q", models.ErrInvalidInterest, s)
		}
		p.InterestScore = &n
		return nil
	})
	fs.Func("applied", "application date YYYY-MM-DD", func(s string) error {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return err
		}
		p.AppliedAt = &d
		return nil
	})
	if _, err := positional(fs, args, 0); err != nil {
		return err
	}
	if err := p.ValidateCreate(); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	coord, err := a.online(ctx)
	if err != nil {
		return err
	}
	job, err := coord.Create(ctx, p)
	if err != nil {
		return err
	}
	a.saveSnapshot(ctx, coord.Store().List())
	fmt.Fprintf(a.opts.Out, "created %s  %s - %s  %s\n", job.ID, job.Company, job.Role, a.theme.stage(job.Stage))
	return nil
}

func (a *App) cmdArchive(ctx context.Context, args []string) error {
	rest, err := positional(a.flags("archive"), args, 1)
	if err != nil {
		return err
	}
	coord, err := a.online(ctx)
	if err != nil {
		return err
	}
	job, err := coord.Archive(ctx, rest[0])
	if err != nil {
		return err
	}
	a.saveSnapshot(ctx, coord.Store().List())
	fmt.Fprintf(a.opts.Out, "archived %s  %s - %s\n", job.ID, job.Company, job.Role)
	return nil
}

func (a *App) cmdDelete(ctx context.Context, args []string) error {
	rest, err := positional(a.flags("delete"), args, 1)
	if err != nil {
		return err
	}
	coord, err := a.online(ctx)
	if err != nil {
		return err
	}
	if err := coord.Delete(ctx, rest[0]); err != nil {
		return err
	}
	a.saveSnapshot(ctx, coord.Store().List())
	fmt.Fprintf(a.opts.Out, "deleted %s\n", rest[0])
	return nil
}

func (a *App) cmdFollowUp(ctx context.Context, args []string) error {
	rest, err := positional(a.flags("follow-up"), args, 2)
	if err != nil {
		return err
	}
	date, err := time.Parse(time.DateOnly, rest[1])
	if err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD: %w", ErrUsage, err)
	}
	coord, err := a.online(ctx)
	if err != nil {
		return err
	}
	entry, err := coord.ScheduleFollowUp(ctx, rest[0], date)
	if err != nil {
		return err
	}
	a.saveSnapshot(ctx, coord.Store().List())
	fmt.Fprintf(a.opts.Out, "follow-up scheduled for %s on %s\n", rest[0], entry.Date.Format(time.DateOnly))
	return nil
}

func (a *App) cmdHealth(ctx context.Context, args []string) error {
	if _, err := positional(a.flags("health"), args, 0); err != nil {
		return err
	}
	if a.opts.Offline {
		return ErrOffline
	}
	c, err := a.api()
	if err != nil {
		return err
	}
	start := a.now()
	if err := c.Health(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.opts.Out, "%s %s (%s)\n", a.theme.ok.Render("ok"), a.cfg.API.BaseURL, a.now().Sub(start).Round(time.Millisecond))
	return nil
}

func (a *App) cmdVersion(ctx context.Context, args []string) error {
	if _, err := positional(a.flags("version"), args, 0); err != nil {
		return err
	}
	fmt.Fprintf(a.opts.Out, "jobtrail %s (built %s)\n", a.opts.Version, a.opts.BuildTime)
	return nil
}

// ExitCode maps an error returned by Run to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		return 1
	}
}

func stars(n int) string {
	n = max(0, min(n, 5))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}
