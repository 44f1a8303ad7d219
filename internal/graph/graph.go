// Package graph provides the context-dependency graph used to order and
// schedule the tasks of an execution plan.
package graph

import (
	"errors"
	"fmt"
	"sync"
)

// ErrCycleDetected indicates a circular dependency was found in the task graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// ErrOrderViolation indicates an ordering places a task before one of its dependencies.
var ErrOrderViolation = errors.New("order violates dependencies")

// Node is one task in the graph with the IDs of the tasks it depends on.
type Node struct {
	ID        string
	DependsOn []string
}

type nodeState int

const (
	statePending nodeState = iota
	stateRunning
	stateDone
	stateFailed
)

// DependencyGraph is a directed acyclic graph of task dependencies. Edges
// point from a task to the tasks it depends on. Insertion order is kept so
// every query answers in a stable order.
type DependencyGraph struct {
	mu    sync.RWMutex
	order []string
	index map[string]int
	// edges maps task ID to IDs of tasks it depends on.
	edges map[string][]string
	state map[string]nodeState
	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		index:    make(map[string]int),
		edges:    make(map[string][]string),
		state:    make(map[string]nodeState),
		debugLog: func(format string, args ...interface{}) {},
	}
}

// SetDebugLog sets the debug logging function.
func (g *DependencyGraph) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		g.debugLog = fn
	}
}

// Build constructs the graph from nodes. Returns an error if a node is
// duplicated, a dependency references an unknown node, or a cycle exists.
func (g *DependencyGraph) Build(nodes []Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.debugLog("[graph.Build] building graph from %d nodes", len(nodes))

	for _, n := range nodes {
		if _, dup := g.index[n.ID]; dup {
			return fmt.Errorf("duplicate task %s", n.ID)
		}
		g.index[n.ID] = len(g.order)
		g.order = append(g.order, n.ID)
		g.edges[n.ID] = nil
		g.state[n.ID] = statePending
	}

	for _, n := range nodes {
		for _, dep := range n.DependsOn {
			if _, ok := g.index[dep]; !ok {
				return fmt.Errorf("task %s depends on unknown task %s", n.ID, dep)
			}
			g.edges[n.ID] = append(g.edges[n.ID], dep)
		}
	}

	if g.hasCycleLocked() {
		return ErrCycleDetected
	}

	g.debugLog("[graph.Build] edges: %v", g.edges)
	return nil
}

// HasCycle returns true if the graph contains a circular dependency.
func (g *DependencyGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCycleLocked()
}

func (g *DependencyGraph) hasCycleLocked() bool {
	// 0 = unvisited, 1 = in progress, 2 = done.
	colors := make(map[string]int, len(g.order))

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1
		for _, dep := range g.edges[id] {
			switch colors[dep] {
			case 1:
				return true
			case 0:
				if visit(dep) {
					return true
				}
			}
		}
		colors[id] = 2
		return false
	}

	for _, id := range g.order {
		if colors[id] == 0 && visit(id) {
			return true
		}
	}
	return false
}

// TopologicalSort returns task IDs with every dependency before its
// dependents. Among independent tasks insertion order is kept.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.hasCycleLocked() {
		return nil, ErrCycleDetected
	}

	visited := make(map[string]bool, len(g.order))
	result := make([]string, 0, len(g.order))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range g.edges[id] {
			visit(dep)
		}
		result = append(result, id)
	}

	for _, id := range g.order {
		visit(id)
	}
	return result, nil
}

// CheckOrder verifies that order lists every dependency of a task before
// the task itself. IDs not in the graph are rejected.
func (g *DependencyGraph) CheckOrder(order []string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if _, ok := g.index[id]; !ok {
			return fmt.Errorf("unknown task %s", id)
		}
		for _, dep := range g.edges[id] {
			if !seen[dep] {
				return fmt.Errorf("%w: %s runs before its dependency %s", ErrOrderViolation, id, dep)
			}
		}
		seen[id] = true
	}
	return nil
}

// GetReady returns pending tasks whose dependencies are all done, in
// insertion order. These tasks can be executed in parallel.
func (g *DependencyGraph) GetReady() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ready []string
	for _, id := range g.order {
		if g.state[id] != statePending {
			continue
		}
		satisfied := true
		for _, dep := range g.edges[id] {
			if g.state[dep] != stateDone {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, id)
		}
	}

	g.debugLog("[graph.GetReady] %d ready: %v", len(ready), ready)
	return ready
}

// MarkRunning removes a task from the ready set.
func (g *DependencyGraph) MarkRunning(taskID string) {
	g.setState(taskID, stateRunning)
}

// MarkComplete marks a task as done, releasing its dependents.
func (g *DependencyGraph) MarkComplete(taskID string) {
	g.setState(taskID, stateDone)
}

// MarkFailed marks a task as failed and returns every transitive dependent
// that can no longer run, in insertion order. Those dependents are also
// marked failed so they never become ready.
func (g *DependencyGraph) MarkFailed(taskID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state[taskID] = stateFailed

	var blocked []string
	changed := true
	for changed {
		changed = false
		for _, id := range g.order {
			if g.state[id] != statePending {
				continue
			}
			for _, dep := range g.edges[id] {
				if g.state[dep] == stateFailed {
					g.state[id] = stateFailed
					blocked = append(blocked, id)
					changed = true
					break
				}
			}
		}
	}

	g.sortLocked(blocked)
	g.debugLog("[graph.MarkFailed] %s failed, blocking %v", taskID, blocked)
	return blocked
}

func (g *DependencyGraph) setState(taskID string, s nodeState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.index[taskID]; ok {
		g.state[taskID] = s
	}
}

func (g *DependencyGraph) sortLocked(ids []string) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && g.index[ids[j]] < g.index[ids[j-1]]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

// Pending returns the number of tasks not yet finished or running.
func (g *DependencyGraph) Pending() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, id := range g.order {
		if g.state[id] == statePending {
			n++
		}
	}
	return n
}

// Size returns the number of tasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

// GetDependencies returns the IDs of tasks that the given task depends on.
func (g *DependencyGraph) GetDependencies(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.edges[taskID]...)
}

// GetDependents returns the IDs of tasks that directly depend on the given task.
func (g *DependencyGraph) GetDependents(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for _, id := range g.order {
		for _, dep := range g.edges[id] {
			if dep == taskID {
				dependents = append(dependents, id)
				break
			}
		}
	}
	return dependents
}
