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

type backup struct {
	TakenAt time.Time    `json:"takenAt"`
	Jobs    []models.Job `json:"jobs"`
}

// db_restore replaces the offline snapshot with a db_backup JSON file.
func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	in := flag.String("in", "", "Backup file (default <snapshot_path>.json)")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	src := *in
	if src == "" {
		src = cfg.SnapshotPath + ".json"
	}

	b, err := os.ReadFile(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}
	var bk backup
	if err := json.Unmarshal(b, &bk); err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: decode %s: %v\n", src, err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.SnapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}
	if err := sqlite.New(database, nil).SaveSnapshot(ctx, bk.Jobs, bk.TakenAt); err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Snapshot restored: %d jobs taken at %s.\n", len(bk.Jobs), bk.TakenAt.Format(time.RFC3339))
}
