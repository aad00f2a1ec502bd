package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/garnizeh/jobtrail/internal/cli"
	"github.com/garnizeh/jobtrail/internal/config"
	"github.com/garnizeh/jobtrail/internal/logging"
	"github.com/garnizeh/jobtrail/internal/pipeline"
	"github.com/garnizeh/jobtrail/pkg/jobsapi"
	"github.com/mattn/go-isatty"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config YAML file")
		offline    = flag.Bool("offline", false, "Serve read commands from the last snapshot")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, os.Stderr)
	jobsapi.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := cli.Options{
		Out:       os.Stdout,
		Err:       os.Stderr,
		Logger:    logger,
		Offline:   *offline,
		Version:   version,
		BuildTime: buildTime,
	}
	// scripts and CI get notifications as log records instead of styled lines
	if fd := os.Stderr.Fd(); !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		opts.Notifier = pipeline.LogNotifier(logger)
	}

	app := cli.New(cfg, opts)
	err = app.Run(ctx, flag.Args())
	if cerr := app.Close(); cerr != nil {
		logger.Warn("jobtrail: close failed", slog.Any("err", cerr))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobtrail: %v\n", err)
	}
	stop()
	os.Exit(cli.ExitCode(err))
}
