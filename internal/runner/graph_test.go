package runner

import (
	"testing"

	"github.com/pmrun/pmrun/internal/model"
)

func mkTask(id string, deps ...string) *model.Task {
	return &model.Task{ID: id, DependencyIDs: deps, Status: model.TaskPending}
}

func TestBuildGraphRejectsUnknownDependency(t *testing.T) {
	tasks := []*model.Task{mkTask("a", "ghost")}
	if _, err := buildGraph(tasks); err == nil {
		t.Fatal("expected an error for a dependency on an unknown task")
	}
}

func TestBuildGraphRejectsCycle(t *testing.T) {
	tasks := []*model.Task{mkTask("a", "b"), mkTask("b", "a")}
	if _, err := buildGraph(tasks); err == nil {
		t.Fatal("expected an error for a dependency cycle")
	}
}

func TestBuildGraphRejectsDuplicateID(t *testing.T) {
	tasks := []*model.Task{mkTask("a"), mkTask("a")}
	if _, err := buildGraph(tasks); err == nil {
		t.Fatal("expected an error for a duplicate task id")
	}
}

func TestTopologicalOrderRespectsDependencies(t *testing.T) {
	tasks := []*model.Task{mkTask("c", "b"), mkTask("b", "a"), mkTask("a")}
	g, err := buildGraph(tasks)
	if err != nil {
		t.Fatalf("buildGraph: %v", err)
	}
	order := g.topologicalOrder()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	if pos["a"] >= pos["b"] || pos["b"] >= pos["c"] {
		t.Errorf("order %v does not respect a -> b -> c", order)
	}
}

func TestDepsSatisfiedRequiresAllTerminal(t *testing.T) {
	tasks := []*model.Task{mkTask("a"), mkTask("b", "a")}
	g, err := buildGraph(tasks)
	if err != nil {
		t.Fatalf("buildGraph: %v", err)
	}
	if g.depsSatisfied("b") {
		t.Error("b should not be ready while a is still PENDING")
	}
	g.tasks["a"].Status = model.TaskComplete
	if !g.depsSatisfied("b") {
		t.Error("b should be ready once a is COMPLETE")
	}
}
