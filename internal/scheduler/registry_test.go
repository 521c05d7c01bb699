package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yomogiu/yfinance-analytics/internal/domain"
)

func noopAction(_ context.Context, _ any, _ domain.Results) (any, error) {
	return nil, nil
}

func newTask(name string, priority domain.Priority, deps ...string) *domain.Task {
	return &domain.Task{
		Name:         name,
		Priority:     priority,
		Dependencies: deps,
		Timeout:      time.Second,
		Retries:      1,
		Action:       noopAction,
	}
}

func TestRegistry_AddAndLayers(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(newTask("fetch", domain.PriorityHigh)))
	require.NoError(t, reg.Add(newTask("transform", domain.PriorityHigh, "fetch")))
	require.NoError(t, reg.Add(newTask("validate", domain.PriorityMedium, "transform")))
	require.NoError(t, reg.Add(newTask("save", domain.PriorityLow, "transform", "validate")))

	assert.Equal(t, 4, reg.Len())
	layers := reg.Layers()
	require.Equal(t, [][]string{{"fetch"}, {"transform"}, {"validate"}, {"save"}}, layers)
}

func TestRegistry_UnknownDependency(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(newTask("a", domain.PriorityHigh)))

	err := reg.Add(newTask("d", domain.PriorityHigh, "z"))
	var unknownErr *domain.UnknownDependencyError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "d", unknownErr.Task)
	assert.Equal(t, "z", unknownErr.Dependency)

	// Registry still contains only the pre-existing task.
	assert.Equal(t, 1, reg.Len())
	assert.Nil(t, reg.Task("d"))
	assert.Equal(t, [][]string{{"a"}}, reg.Layers())
}

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(newTask("a", domain.PriorityHigh)))
	require.NoError(t, reg.Add(newTask("b", domain.PriorityHigh, "a")))

	// Re-registering "a", now depending on "b", would be the one route to a
	// mutual dependency. It is rejected outright and the graph keeps its
	// last valid state.
	err := reg.Add(newTask("a", domain.PriorityHigh, "b"))
	var dupErr *domain.DuplicateTaskError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "a", dupErr.Name)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, reg.Layers())
}

func TestRegistry_Validation(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(newTask("a", domain.PriorityHigh)))

	tests := []struct {
		name string
		task *domain.Task
	}{
		{"nil task", nil},
		{"empty name", newTask("", domain.PriorityHigh)},
		{"self dependency", newTask("b", domain.PriorityHigh, "b")},
		{"duplicate dependency", newTask("b", domain.PriorityHigh, "a", "a")},
		{"zero retries", &domain.Task{Name: "b", Retries: 0, Action: noopAction}},
		{"nil action", &domain.Task{Name: "b", Retries: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Add(tt.task)
			var invalidErr *domain.InvalidTaskError
			require.ErrorAs(t, err, &invalidErr)
			assert.Equal(t, 1, reg.Len(), "registry must be unchanged")
		})
	}
}

func TestRegistry_LayerOrderedByPriorityThenRegistration(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(newTask("low1", domain.PriorityLow)))
	require.NoError(t, reg.Add(newTask("med1", domain.PriorityMedium)))
	require.NoError(t, reg.Add(newTask("high1", domain.PriorityHigh)))
	require.NoError(t, reg.Add(newTask("med2", domain.PriorityMedium)))
	require.NoError(t, reg.Add(newTask("high2", domain.PriorityHigh)))

	layers := reg.Layers()
	require.Len(t, layers, 1)
	assert.Equal(t, []string{"high1", "high2", "med1", "med2", "low1"}, layers[0])
}

func TestRegistry_PriorityNeverMovesTaskAcrossLayers(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(newTask("slow-root", domain.PriorityLow)))
	require.NoError(t, reg.Add(newTask("urgent-child", domain.PriorityHigh, "slow-root")))

	layers := reg.Layers()
	require.Equal(t, [][]string{{"slow-root"}, {"urgent-child"}}, layers,
		"a HIGH task must not be scheduled before its LOW dependency")
}
