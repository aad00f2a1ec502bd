package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	dbfs "github.com/garnizeh/jobtrail/db"
	"github.com/garnizeh/jobtrail/internal/config"
	"github.com/garnizeh/jobtrail/internal/db"
	"github.com/garnizeh/jobtrail/internal/repository/sqlite"
	"github.com/garnizeh/jobtrail/pkg/models"
)

// backup is the on-disk format shared with db_restore.
type backup struct {
	TakenAt time.Time    `json:"takenAt"`
	Jobs    []models.Job `json:"jobs"`
}

// db_backup writes the offline snapshot to a JSON file.
func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	out := flag.String("out", "", "Backup file (default <snapshot_path>.json)")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	dst := *out
	if dst == "" {
		dst = cfg.SnapshotPath + ".json"
	}

	database, err := db.New(ctx, cfg.SnapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}

	jobs, at, err := sqlite.New(database, nil).LoadSnapshot(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}
	if at.IsZero() {
		fmt.Fprintln(os.Stderr, "Backup error: no snapshot to back up")
		os.Exit(1)
	}

	b, err := json.MarshalIndent(backup{TakenAt: at, Jobs: jobs}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(dst, b, 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Snapshot backup of %d jobs written to %s.\n", len(jobs), dst)
}
