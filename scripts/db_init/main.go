package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	dbfs "github.com/garnizeh/jobtrail/db"
	"github.com/garnizeh/jobtrail/internal/config"
	"github.com/garnizeh/jobtrail/internal/db"
)

// db_init creates the offline snapshot database and applies its migrations.
func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SnapshotPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Snapshot dir error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.SnapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Snapshot database initialized at %s.\n", cfg.SnapshotPath)
}
