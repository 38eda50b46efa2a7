package usecase

import (
	"context"
	"log/slog"
	"time"

	"ContentPipeline/internal/ports"
)

// Scheduler wires the cron driver with the runner for a fixed list of sites.
type Scheduler struct {
	driver ports.Scheduler
	runner *Runner
	sites  []string
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, runner *Runner, sites []string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		driver: driver,
		runner: runner,
		sites:  sites,
		logger: logger.With("component", "scheduler"),
	}
}

// Start registers the runs with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil || len(s.sites) == 0 {
		return nil
	}

	job := func(trigger time.Time) {
		for _, site := range s.sites {
			if ctx.Err() != nil {
				return
			}
			run, err := s.runner.Execute(ctx, site)
			if err != nil {
				s.logger.Error("scheduled run failed", "site", site, "trigger", trigger, "error", err)
				continue
			}
			s.logger.Info("scheduled run finished", "site", site, "run", run.ID, "articles", len(run.Results))
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
