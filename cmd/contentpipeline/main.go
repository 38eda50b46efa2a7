package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"ContentPipeline/internal/app"
	"ContentPipeline/internal/config"
	"ContentPipeline/internal/logging"
	"ContentPipeline/internal/report"
)

type options struct {
	Config   string `long:"config" short:"c" env:"CONTENT_PIPELINE_CONFIG" description:"Path to the YAML configuration file"`
	SiteURL  string `long:"site-url" short:"s" env:"SITE_URL" description:"News site to process once"`
	Serve    bool   `long:"serve" description:"Expose the HTTP API instead of running once"`
	Schedule bool   `long:"schedule" description:"Run configured sites on the cron schedule"`
	Addr     string `long:"addr" env:"HTTP_ADDR" description:"HTTP listen address (overrides config)"`
	Format   string `long:"format" default:"text" choice:"text" choice:"json" description:"Output format for a single run"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run owns every deferred cleanup so it completes before the process exits.
func run(args []string) int {
	_ = godotenv.Load()

	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 2
	}

	cfg := config.Load(opts.Config)
	logger := logging.NewWithFormat(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()

	switch {
	case opts.Serve:
		err = application.Serve(ctx, opts.Addr)
	case opts.Schedule:
		err = application.Schedule(ctx)
	default:
		err = runOnce(ctx, application, opts)
	}
	if err != nil {
		logger.Error("application stopped", "error", err)
		return 1
	}
	return 0
}

func runOnce(ctx context.Context, application *app.Application, opts options) error {
	run, err := application.RunOnce(ctx, opts.SiteURL)
	if len(run.Results) == 0 && err != nil {
		return err
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report.NewDocument(run)); encErr != nil {
			return errors.Join(err, fmt.Errorf("encode run: %w", encErr))
		}
	} else {
		fmt.Fprint(os.Stdout, report.Digest(run))
	}
	return err
}
