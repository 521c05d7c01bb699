package scheduler

import (
	"sync"

	"github.com/yomogiu/yfinance-analytics/internal/domain"
)

// resultCache is the run-scoped store of completed task outputs. Each task
// writes exactly one key (its own name) after its own success; layer
// boundaries guarantee readers in later layers see fully-written entries.
type resultCache struct {
	mu sync.RWMutex
	m  map[string]any
}

func newResultCache() *resultCache {
	return &resultCache{m: make(map[string]any)}
}

func (c *resultCache) put(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[name]; ok {
		return // write-once per task name per run
	}
	c.m[name] = value
}

func (c *resultCache) get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[name]
	return v, ok
}

func (c *resultCache) snapshot() domain.Results {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(domain.Results, len(c.m))
	for k, v := range c.m {
		out[k] = v
	}
	return out
}
