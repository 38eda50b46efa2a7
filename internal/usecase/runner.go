package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

const sinkTimeout = 30 * time.Second

// Runner executes one pipeline run and hands the outcome to every sink.
type Runner struct {
	pipeline *Pipeline
	sinks    []ports.ResultSink
	logger   *slog.Logger
	now      func() time.Time
}

func NewRunner(pipeline *Pipeline, sinks []ports.ResultSink, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		pipeline: pipeline,
		sinks:    sinks,
		logger:   logger.With("component", "runner"),
		now:      time.Now,
	}
}

// Execute runs the pipeline over siteURL. The returned Run carries whatever
// Results were produced, even when err is non-nil. Sinks are skipped only when
// nothing was produced.
func (r *Runner) Execute(ctx context.Context, siteURL string) (domain.Run, error) {
	run := domain.Run{
		ID:        uuid.NewString(),
		SiteURL:   siteURL,
		StartedAt: r.now().UTC(),
	}
	if r.pipeline == nil {
		return run, errors.New("execute run: pipeline not configured")
	}

	results, err := r.pipeline.Process(ctx, siteURL)
	run.Results = results
	if err != nil {
		r.logger.Error("pipeline run failed", "run", run.ID, "site", siteURL, "error", err)
		if len(results) == 0 {
			return run, err
		}
	}

	// Sinks still receive a cancelled run's prefix.
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	return run, errors.Join(err, r.publish(sinkCtx, run))
}

func (r *Runner) publish(ctx context.Context, run domain.Run) error {
	var errs []error
	for _, sink := range r.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, run); err != nil {
			r.logger.Warn("sink failed", "sink", sink.Name(), "run", run.ID, "error", err)
			errs = append(errs, fmt.Errorf("publish to %s: %w", sink.Name(), err))
			continue
		}
		r.logger.Debug("run published", "sink", sink.Name(), "run", run.ID)
	}
	return errors.Join(errs...)
}
