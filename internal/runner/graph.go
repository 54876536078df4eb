// Package runner is the façade: it accepts a task list, orders it by
// dependency with bounded concurrency, drives each task through the review
// loop, and composes the completion protocol and lifecycle controller into
// a single session verdict with a process exit code.
package runner

import (
	"fmt"
	"sort"

	"github.com/pmrun/pmrun/internal/model"
)

// taskGraph is the dependency graph over one task list, built once per run.
// dependents maps a task id to the ids of tasks that name it in
// DependencyIDs — the Kahn's-algorithm adjacency the scheduler walks as
// each task reaches a terminal status.
type taskGraph struct {
	tasks      map[string]*model.Task
	order      []string // stable iteration order, input order preserved
	dependents map[string][]string
}

// buildGraph validates that every DependencyIDs reference resolves to a
// task in the same list and that the list is acyclic, returning a graph
// ready for scheduling.
func buildGraph(tasks []*model.Task) (*taskGraph, error) {
	g := &taskGraph{
		tasks:      make(map[string]*model.Task, len(tasks)),
		dependents: make(map[string][]string),
	}
	for _, t := range tasks {
		if _, dup := g.tasks[t.ID]; dup {
			return nil, fmt.Errorf("duplicate task id %q", t.ID)
		}
		g.tasks[t.ID] = t
		g.order = append(g.order, t.ID)
	}
	for _, t := range tasks {
		for _, dep := range t.DependencyIDs {
			if _, ok := g.tasks[dep]; !ok {
				return nil, fmt.Errorf("task %q depends on unknown task %q", t.ID, dep)
			}
			g.dependents[dep] = append(g.dependents[dep], t.ID)
		}
	}
	if cycleAt, ok := g.findCycle(); ok {
		return nil, fmt.Errorf("dependency cycle detected at task %q", cycleAt)
	}
	return g, nil
}

// findCycle runs Kahn's algorithm to exhaustion over a throwaway in-degree
// count; any task never reaching in-degree zero sits on (or behind) a
// cycle.
func (g *taskGraph) findCycle() (string, bool) {
	indeg := make(map[string]int, len(g.tasks))
	for id, t := range g.tasks {
		indeg[id] = len(t.DependencyIDs)
	}

	queue := make([]string, 0, len(g.tasks))
	for _, id := range g.order {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++

		deps := append([]string(nil), g.dependents[id]...)
		sort.Strings(deps)
		for _, dep := range deps {
			indeg[dep]--
			if indeg[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if visited == len(g.tasks) {
		return "", false
	}
	for _, id := range g.order {
		if indeg[id] > 0 {
			return id, true
		}
	}
	return "", true
}

// topologicalOrder returns one valid Kahn's-algorithm ordering of the
// graph's task ids, used as the PLANNING phase's task_order evidence. The
// graph is already known acyclic by the time this is called.
func (g *taskGraph) topologicalOrder() []string {
	indeg := make(map[string]int, len(g.tasks))
	for id, t := range g.tasks {
		indeg[id] = len(t.DependencyIDs)
	}

	queue := make([]string, 0, len(g.tasks))
	for _, id := range g.order {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}

	var out []string
	for len(queue) > 0 {
		sort.Strings(queue)
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)

		deps := append([]string(nil), g.dependents[id]...)
		sort.Strings(deps)
		for _, dep := range deps {
			indeg[dep]--
			if indeg[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	return out
}

// depsSatisfied reports whether every dependency of id has reached a
// terminal TaskStatus — the only condition under which id may be
// dispatched.
func (g *taskGraph) depsSatisfied(id string) bool {
	for _, dep := range g.tasks[id].DependencyIDs {
		if !g.tasks[dep].Status.IsTerminal() {
			return false
		}
	}
	return true
}
