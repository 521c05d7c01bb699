package scheduler

import (
	"sort"
	"sync"

	"github.com/yomogiu/yfinance-analytics/internal/domain"
)

// Registry holds task definitions and the dependency graph built from them.
// Build-once: tasks are added up front, then the registry feeds an Executor.
// There is no removal.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	order map[string]int // registration index, tie-break within a layer
	graph *graph
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]*domain.Task),
		order: make(map[string]int),
		graph: newGraph(),
	}
}

// Add registers a task and wires its dependency edges into the graph.
//
// Dependencies must already be registered: dependents are added after their
// dependencies. On any error the registry and graph are left exactly as they
// were before the call.
func (r *Registry) Add(t *domain.Task) error {
	if err := validate(t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[t.Name]; exists {
		return &domain.DuplicateTaskError{Name: t.Name}
	}
	for _, dep := range t.Dependencies {
		if _, ok := r.tasks[dep]; !ok {
			return &domain.UnknownDependencyError{Task: t.Name, Dependency: dep}
		}
	}

	r.graph.addNode(t.Name)
	for _, dep := range t.Dependencies {
		if err := r.graph.addEdge(dep, t.Name); err != nil {
			r.graph.removeNode(t.Name)
			return err
		}
	}

	r.tasks[t.Name] = t
	r.order[t.Name] = len(r.order)
	return nil
}

// Task returns the registered task with the given name, or nil.
func (r *Registry) Task(name string) *domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tasks[name]
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Layers computes the execution schedule: an ordered partition of all tasks
// into waves where every dependency sits in a strictly earlier wave. Within a
// wave tasks are ordered by ascending priority ordinal, ties broken by
// registration order. Priority never moves a task across waves.
func (r *Registry) Layers() [][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	layers := r.graph.layers()
	for _, layer := range layers {
		sort.SliceStable(layer, func(i, j int) bool {
			a, b := r.tasks[layer[i]], r.tasks[layer[j]]
			if a.Priority != b.Priority {
				return a.Priority < b.Priority
			}
			return r.order[layer[i]] < r.order[layer[j]]
		})
	}
	return layers
}

func validate(t *domain.Task) error {
	if t == nil {
		return &domain.InvalidTaskError{Reason: "task is nil"}
	}
	if t.Name == "" {
		return &domain.InvalidTaskError{Name: t.Name, Reason: "name is empty"}
	}
	if t.Action == nil {
		return &domain.InvalidTaskError{Name: t.Name, Reason: "action is nil"}
	}
	if t.Retries < 1 {
		return &domain.InvalidTaskError{Name: t.Name, Reason: "retries must be >= 1"}
	}
	seen := make(map[string]bool, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		if dep == t.Name {
			return &domain.InvalidTaskError{Name: t.Name, Reason: "task depends on itself"}
		}
		if seen[dep] {
			return &domain.InvalidTaskError{Name: t.Name, Reason: "duplicate dependency " + dep}
		}
		seen[dep] = true
	}
	return nil
}
