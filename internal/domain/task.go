package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Priority orders tasks within an execution layer. Lower ordinal runs first.
type Priority int

const (
	PriorityHigh   Priority = 0
	PriorityMedium Priority = 1
	PriorityLow    Priority = 2
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// ParsePriority maps a human-readable priority name ("high", "MEDIUM", ...)
// to its ordinal. Task builders resolve config strings through this before
// registration.
func ParsePriority(name string) (Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "HIGH":
		return PriorityHigh, nil
	case "MEDIUM":
		return PriorityMedium, nil
	case "LOW":
		return PriorityLow, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", name)
	}
}

// Results maps a task name to the value its action returned.
type Results map[string]any

// Action is a task's unit of work. cfg is the opaque run configuration,
// threaded unchanged into every invocation; deps holds the results of the
// task's declared dependencies, keyed by name, and is empty for tasks
// without dependencies.
type Action func(ctx context.Context, cfg any, deps Results) (any, error)

// Task is the core domain entity: a named unit of work with its
// scheduling constraints.
type Task struct {
	Name         string
	Priority     Priority
	Dependencies []string
	Timeout      time.Duration
	Retries      int // total attempts including the first; must be >= 1
	Action       Action
	Metadata     map[string]string
}

// Status represents the states a task moves through during a run.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusRetrying  Status = "RETRYING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// IsTerminal returns true if no further state transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// TaskExecution records a single execution attempt of a task.
type TaskExecution struct {
	Task       string        `json:"task"`
	Attempt    int           `json:"attempt"`
	Status     Status        `json:"status"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	ExecutedAt time.Time     `json:"executed_at"`
}
