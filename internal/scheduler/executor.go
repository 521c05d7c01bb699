package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yomogiu/yfinance-analytics/internal/domain"
	"github.com/yomogiu/yfinance-analytics/pkg/retry"
	"github.com/yomogiu/yfinance-analytics/pkg/telemetry"
)

// Executor runs the registered tasks layer by layer: every task in a layer
// executes concurrently, and the next layer starts only after the whole
// layer finished. A task that exhausts its attempts fails the run; siblings
// already dispatched in its layer run to completion, later layers never start.
type Executor struct {
	reg       *Registry
	cfg       any // opaque run configuration, threaded into every action
	logger    *slog.Logger
	baseDelay time.Duration

	mu         sync.Mutex
	executions []domain.TaskExecution
	statuses   map[string]domain.Status
}

// Option configures an Executor.
type Option func(*Executor)

func WithLogger(l *slog.Logger) Option     { return func(e *Executor) { e.logger = l } }
func WithBaseDelay(d time.Duration) Option { return func(e *Executor) { e.baseDelay = d } }

// NewExecutor constructs an Executor over the given registry. cfg is passed
// unchanged to every task action; the executor never inspects it.
func NewExecutor(reg *Registry, cfg any, opts ...Option) *Executor {
	e := &Executor{
		reg:       reg,
		cfg:       cfg,
		logger:    slog.Default(),
		baseDelay: time.Second,
		statuses:  make(map[string]domain.Status),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run computes the layered schedule once, executes it, and returns the
// results of every task keyed by name. On failure no partial results are
// returned: callers see either the complete result set or a single
// TaskExecutionFailedError identifying the first permanently-failed task.
func (e *Executor) Run(ctx context.Context) (domain.Results, error) {
	runID := uuid.New().String()
	ctx, span := otel.Tracer("scheduler").Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.Int("task.count", e.reg.Len()),
	)

	log := e.logger.With(slog.String("run_id", runID))
	layers := e.reg.Layers()
	cache := newResultCache()
	start := time.Now()

	for _, layer := range layers {
		for _, name := range layer {
			e.setStatus(name, domain.StatusPending)
		}
	}

	log.Info("pipeline run starting",
		slog.Int("tasks", e.reg.Len()),
		slog.Int("layers", len(layers)),
	)

	for i, layer := range layers {
		log.Debug("layer starting", slog.Int("layer", i), slog.Any("tasks", layer))

		var wg sync.WaitGroup
		errs := make([]error, len(layer))
		for j, name := range layer {
			wg.Add(1)
			go func(slot int, name string) {
				defer wg.Done()
				errs[slot] = e.executeTask(ctx, log, e.reg.Task(name), cache)
			}(j, name)
		}
		wg.Wait()

		// Layer order doubles as failure precedence: the first failed slot
		// is the error the caller sees.
		for _, err := range errs {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "task failed permanently")
				telemetry.PipelineRunsTotal.WithLabelValues("failed").Inc()
				log.Error("pipeline run failed",
					slog.Int("layer", i),
					slog.String("error", err.Error()),
				)
				return nil, err
			}
		}
	}

	elapsed := time.Since(start)
	telemetry.PipelineRunsTotal.WithLabelValues("succeeded").Inc()
	telemetry.PipelineRunDurationSeconds.Observe(elapsed.Seconds())
	log.Info("pipeline run completed",
		slog.Int64("duration_ms", elapsed.Milliseconds()),
		slog.Int("tasks", e.reg.Len()),
	)
	return cache.snapshot(), nil
}

// Executions returns the per-attempt execution log of all runs so far.
func (e *Executor) Executions() []domain.TaskExecution {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.TaskExecution(nil), e.executions...)
}

// TaskStatus reports where a task currently sits in the
// PENDING -> RUNNING -> RETRYING -> SUCCEEDED/FAILED lifecycle. ok is false
// until the task has been scheduled by a call to Run.
func (e *Executor) TaskStatus(name string) (status domain.Status, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	status, ok = e.statuses[name]
	return status, ok
}

func (e *Executor) setStatus(name string, s domain.Status) {
	e.mu.Lock()
	e.statuses[name] = s
	e.mu.Unlock()
}

func (e *Executor) executeTask(ctx context.Context, log *slog.Logger, t *domain.Task, cache *resultCache) error {
	ctx, span := otel.Tracer("scheduler").Start(ctx, "pipeline.task")
	defer span.End()
	span.SetAttributes(
		attribute.String("task.name", t.Name),
		attribute.String("task.priority", t.Priority.String()),
	)

	tlog := log.With(
		slog.String("task", t.Name),
		slog.String("priority", t.Priority.String()),
	)

	// Dependencies ran in strictly earlier layers, so every entry is present.
	deps := make(domain.Results, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		v, ok := cache.get(dep)
		if !ok {
			return fmt.Errorf("dependency %q of task %q has no result", dep, t.Name)
		}
		deps[dep] = v
	}

	telemetry.TasksInFlight.Inc()
	defer telemetry.TasksInFlight.Dec()

	e.setStatus(t.Name, domain.StatusRunning)
	tlog.Info("task starting", slog.Int("dependencies", len(deps)))

	var (
		result   any
		attempts int
	)
	start := time.Now()

	execErr := retry.Do(ctx, retry.Config{
		MaxAttempts: t.Retries,
		BaseDelay:   e.baseDelay,
		OnRetry: func(attempt int, retryErr error) {
			telemetry.TaskRetriesTotal.WithLabelValues(t.Name).Inc()
			tlog.Warn("attempt failed, retrying",
				slog.Int("attempt", attempt),
				slog.String("error", retryErr.Error()),
			)
		},
	}, func() error {
		attempts++
		attemptStart := time.Now()
		value, err := e.attempt(ctx, t, deps)
		e.record(t.Name, attempts, attemptStatus(err, attempts, t.Retries), err, time.Since(attemptStart))
		if err != nil {
			var timeout *domain.TaskTimeoutError
			if errors.As(err, &timeout) {
				telemetry.TaskTimeoutsTotal.WithLabelValues(t.Name).Inc()
			}
			span.RecordError(err)
			return err
		}
		result = value
		return nil
	})

	elapsed := time.Since(start)

	if execErr != nil {
		// A retry cancelled mid-backoff leaves the last attempt RETRYING;
		// the task itself is done either way.
		e.setStatus(t.Name, domain.StatusFailed)
		span.SetStatus(codes.Error, "task exhausted all attempts")
		telemetry.TasksProcessed.WithLabelValues(t.Name, "failed").Inc()
		tlog.Error("task failed permanently",
			slog.Int("attempts", attempts),
			slog.String("error", execErr.Error()),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
		)
		return &domain.TaskExecutionFailedError{Task: t.Name, Attempts: attempts, LastErr: execErr}
	}

	cache.put(t.Name, result)
	telemetry.TasksProcessed.WithLabelValues(t.Name, "succeeded").Inc()
	telemetry.TaskDurationSeconds.WithLabelValues(t.Name).Observe(elapsed.Seconds())
	tlog.Info("task completed",
		slog.Int("attempts", attempts),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return nil
}

// attempt runs the action once, bounded by the task's timeout. The action is
// invoked on its own goroutine so a timeout abandons only this attempt; panics
// are converted to errors rather than aborting the process.
func (e *Executor) attempt(ctx context.Context, t *domain.Task, deps domain.Results) (any, error) {
	attemptCtx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("action panicked: %v", r)}
			}
		}()
		value, err := t.Action(attemptCtx, e.cfg, deps)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-attemptCtx.Done():
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &domain.TaskTimeoutError{Task: t.Name, Timeout: t.Timeout}
		}
		return nil, attemptCtx.Err()
	}
}

// attemptStatus maps an attempt outcome onto the task lifecycle: a failure
// with attempts left is RETRYING, a failure on the last attempt is FAILED.
func attemptStatus(err error, attempt, maxAttempts int) domain.Status {
	switch {
	case err == nil:
		return domain.StatusSucceeded
	case attempt < maxAttempts:
		return domain.StatusRetrying
	default:
		return domain.StatusFailed
	}
}

func (e *Executor) record(task string, attempt int, status domain.Status, err error, d time.Duration) {
	exec := domain.TaskExecution{
		Task:       task,
		Attempt:    attempt,
		Status:     status,
		Duration:   d,
		ExecutedAt: time.Now().UTC(),
	}
	if err != nil {
		exec.Error = err.Error()
	}
	e.mu.Lock()
	e.executions = append(e.executions, exec)
	e.statuses[task] = status
	e.mu.Unlock()
}
