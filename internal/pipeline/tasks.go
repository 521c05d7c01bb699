package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/yomogiu/yfinance-analytics/internal/domain"
	"github.com/yomogiu/yfinance-analytics/internal/marketdata"
)

// Task names. save depends on both transform and validate, giving the
// schedule its diamond: fetch → transform → {validate, save}.
const (
	TaskFetch     = "fetch"
	TaskTransform = "transform"
	TaskValidate  = "validate"
	TaskSave      = "save"
)

var defaultPriorities = map[string]domain.Priority{
	TaskFetch:     domain.PriorityHigh,
	TaskTransform: domain.PriorityHigh,
	TaskValidate:  domain.PriorityMedium,
	TaskSave:      domain.PriorityLow,
}

// BuildTasks assembles the pipeline's task definitions in registration order
// (dependencies first). The caller registers them into a scheduler.Registry.
func BuildTasks(cfg *Config, fetcher marketdata.Fetcher) ([]*domain.Task, error) {
	timeout := cfg.TaskTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retries := cfg.TaskRetries
	if retries < 1 {
		retries = 3
	}

	priorities := make(map[string]domain.Priority, len(defaultPriorities))
	for name, p := range defaultPriorities {
		priorities[name] = p
	}
	for name, raw := range cfg.Priorities {
		if _, ok := priorities[name]; !ok {
			return nil, fmt.Errorf("priority configured for unknown task %q", name)
		}
		p, err := domain.ParsePriority(raw)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", name, err)
		}
		priorities[name] = p
	}

	return []*domain.Task{
		{
			Name:     TaskFetch,
			Priority: priorities[TaskFetch],
			Timeout:  timeout,
			Retries:  retries,
			Action:   fetchAction(fetcher),
		},
		{
			Name:         TaskTransform,
			Priority:     priorities[TaskTransform],
			Dependencies: []string{TaskFetch},
			Timeout:      timeout,
			Retries:      retries,
			Action:       transformAction,
		},
		{
			Name:         TaskValidate,
			Priority:     priorities[TaskValidate],
			Dependencies: []string{TaskTransform},
			Timeout:      timeout,
			Retries:      retries,
			Action:       validateAction,
		},
		{
			Name:         TaskSave,
			Priority:     priorities[TaskSave],
			Dependencies: []string{TaskTransform, TaskValidate},
			Timeout:      timeout,
			Retries:      retries,
			Action:       saveAction,
		},
	}, nil
}

func fetchAction(fetcher marketdata.Fetcher) domain.Action {
	return func(ctx context.Context, rawCfg any, _ domain.Results) (any, error) {
		cfg, err := runConfig(rawCfg)
		if err != nil {
			return nil, err
		}
		return fetcher.FetchDaily(ctx, cfg.Symbol, cfg.StartDate, time.Now())
	}
}

func transformAction(_ context.Context, rawCfg any, deps domain.Results) (any, error) {
	cfg, err := runConfig(rawCfg)
	if err != nil {
		return nil, err
	}
	bars, ok := deps[TaskFetch].([]marketdata.Bar)
	if !ok {
		return nil, fmt.Errorf("fetch result has unexpected type %T", deps[TaskFetch])
	}
	return Transform(cfg, bars), nil
}

func validateAction(_ context.Context, rawCfg any, deps domain.Results) (any, error) {
	cfg, err := runConfig(rawCfg)
	if err != nil {
		return nil, err
	}
	analysis, ok := deps[TaskTransform].(*Analysis)
	if !ok {
		return nil, fmt.Errorf("transform result has unexpected type %T", deps[TaskTransform])
	}
	return Validate(cfg, analysis), nil
}

func saveAction(_ context.Context, rawCfg any, deps domain.Results) (any, error) {
	cfg, err := runConfig(rawCfg)
	if err != nil {
		return nil, err
	}
	analysis, ok := deps[TaskTransform].(*Analysis)
	if !ok {
		return nil, fmt.Errorf("transform result has unexpected type %T", deps[TaskTransform])
	}
	report, ok := deps[TaskValidate].(*ValidationReport)
	if !ok {
		return nil, fmt.Errorf("validate result has unexpected type %T", deps[TaskValidate])
	}
	return Save(cfg, analysis, report)
}
