package domain

import (
	"fmt"
	"time"
)

// UnknownDependencyError is returned when a task declares a dependency on a
// name that has not been registered yet.
type UnknownDependencyError struct {
	Task       string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("task %q depends on unknown task %q", e.Task, e.Dependency)
}

// CycleDetectedError is returned when adding a dependency edge would make the
// task graph cyclic. The offending edge is rejected and the graph keeps its
// last valid state.
type CycleDetectedError struct {
	From string
	To   string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("dependency %s -> %s would create a cycle", e.From, e.To)
}

// DuplicateTaskError is returned when a task name is registered twice.
type DuplicateTaskError struct {
	Name string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %q is already registered", e.Name)
}

// InvalidTaskError is returned when a task definition fails validation
// before it touches the graph.
type InvalidTaskError struct {
	Name   string
	Reason string
}

func (e *InvalidTaskError) Error() string {
	return fmt.Sprintf("invalid task %q: %s", e.Name, e.Reason)
}

// TaskTimeoutError marks a single attempt that exceeded the task's timeout.
// It is recorded per attempt and retried while attempts remain.
type TaskTimeoutError struct {
	Task    string
	Timeout time.Duration
}

func (e *TaskTimeoutError) Error() string {
	return fmt.Sprintf("task %q timed out after %s", e.Task, e.Timeout)
}

// TaskExecutionFailedError is returned when a task exhausts all its attempts.
// It aborts the whole run.
type TaskExecutionFailedError struct {
	Task     string
	Attempts int
	LastErr  error
}

func (e *TaskExecutionFailedError) Error() string {
	return fmt.Sprintf("task %q failed after %d attempts: %v", e.Task, e.Attempts, e.LastErr)
}

func (e *TaskExecutionFailedError) Unwrap() error { return e.LastErr }
