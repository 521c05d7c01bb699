package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yomogiu/yfinance-analytics/internal/domain"
	"github.com/yomogiu/yfinance-analytics/internal/marketdata"
	pipe "github.com/yomogiu/yfinance-analytics/internal/pipeline"
	"github.com/yomogiu/yfinance-analytics/internal/scheduler"
)

// Runner wires the market-data client, the task definitions, and the
// scheduler into a runnable pipeline.
type Runner struct {
	cfg     *pipe.Config
	fetcher marketdata.Fetcher
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

func WithFetcher(f marketdata.Fetcher) Option { return func(r *Runner) { r.fetcher = f } }
func WithLogger(l *slog.Logger) Option        { return func(r *Runner) { r.logger = l } }

// NewRunner constructs a Runner for the given pipeline configuration.
func NewRunner(cfg *pipe.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		fetcher: marketdata.NewClient(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one full pipeline pass: builds the tasks, registers them,
// and drives the layered executor to completion.
func (r *Runner) Run(ctx context.Context) (domain.Results, error) {
	if err := pipe.EnsureDataDirs(r.cfg); err != nil {
		return nil, err
	}

	tasks, err := pipe.BuildTasks(r.cfg, r.fetcher)
	if err != nil {
		return nil, fmt.Errorf("build tasks: %w", err)
	}

	reg := scheduler.NewRegistry()
	for _, t := range tasks {
		if err := reg.Add(t); err != nil {
			return nil, fmt.Errorf("register task %q: %w", t.Name, err)
		}
	}

	exec := scheduler.NewExecutor(reg, r.cfg, scheduler.WithLogger(r.logger))

	start := time.Now()
	results, err := exec.Run(ctx)
	if err != nil {
		return nil, err
	}
	r.logger.Info("pipeline finished",
		slog.Int("results", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return results, nil
}
