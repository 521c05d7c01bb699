package scheduler

import (
	"github.com/yomogiu/yfinance-analytics/internal/domain"
)

// graph is the dependency DAG over task names. Edges point from a dependency
// to its dependent ("must-run-before"). Owned exclusively by the Registry.
type graph struct {
	nodes []string            // insertion order
	out   map[string][]string // node -> tasks that depend on it
	in    map[string][]string // node -> tasks it depends on
}

func newGraph() *graph {
	return &graph{
		out: make(map[string][]string),
		in:  make(map[string][]string),
	}
}

func (g *graph) hasNode(name string) bool {
	_, ok := g.out[name]
	return ok
}

func (g *graph) addNode(name string) {
	if g.hasNode(name) {
		return
	}
	g.nodes = append(g.nodes, name)
	g.out[name] = nil
	g.in[name] = nil
}

// addEdge inserts the dependency edge from -> to. The edge is rejected with
// CycleDetectedError if it would close a cycle; in that case the graph is
// left untouched. Duplicate edges are no-ops.
func (g *graph) addEdge(from, to string) error {
	for _, n := range g.out[from] {
		if n == to {
			return nil
		}
	}
	// A cycle through from -> to exists iff to already reaches from.
	if from == to || g.hasPath(to, from) {
		return &domain.CycleDetectedError{From: from, To: to}
	}
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
	return nil
}

// removeNode deletes a node and every edge touching it. Used to roll the
// graph back to its last valid state when a task registration fails midway.
func (g *graph) removeNode(name string) {
	if !g.hasNode(name) {
		return
	}
	for _, dep := range g.in[name] {
		g.out[dep] = remove(g.out[dep], name)
	}
	for _, dependent := range g.out[name] {
		g.in[dependent] = remove(g.in[dependent], name)
	}
	delete(g.out, name)
	delete(g.in, name)
	g.nodes = remove(g.nodes, name)
}

// hasPath reports whether dst is reachable from src via depth-first search.
func (g *graph) hasPath(src, dst string) bool {
	if src == dst {
		return true
	}
	seen := map[string]bool{src: true}
	stack := []string{src}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.out[n] {
			if next == dst {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// layers partitions the nodes into topological waves: wave 0 holds nodes with
// no dependencies, wave k+1 holds nodes whose dependencies all sit in waves
// <= k. Within a wave, nodes keep insertion order. Layer membership is a
// function of the graph alone.
func (g *graph) layers() [][]string {
	indegree := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		indegree[n] = len(g.in[n])
	}

	var layers [][]string
	remaining := append([]string(nil), g.nodes...)
	for len(remaining) > 0 {
		var wave, rest []string
		for _, n := range remaining {
			if indegree[n] == 0 {
				wave = append(wave, n)
			} else {
				rest = append(rest, n)
			}
		}
		if len(wave) == 0 {
			// Unreachable for a graph built through addEdge, which rejects cycles.
			break
		}
		for _, n := range wave {
			for _, dependent := range g.out[n] {
				indegree[dependent]--
			}
		}
		layers = append(layers, wave)
		remaining = rest
	}
	return layers
}

func remove(s []string, name string) []string {
	for i, n := range s {
		if n == name {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
