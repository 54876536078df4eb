package runner

import (
	"context"
	"sort"
	"sync"

	"github.com/pmrun/pmrun/internal/model"
	"github.com/pmrun/pmrun/internal/stream"
)

// TaskRunner is the minimal surface the scheduler needs to drive one task
// to a review verdict. internal/review.Loop satisfies this.
type TaskRunner interface {
	Run(ctx context.Context, task *model.Task, strm *stream.Stream) *model.ReviewResult
}

// taskOutcome pairs a task id with the review verdict its run produced.
type taskOutcome struct {
	id     string
	review *model.ReviewResult
}

// runSchedule dispatches graph's tasks depth-by-dependency with at most
// concurrency tasks in flight at once, mirroring the depth-staged dispatch
// a DAG executor uses: a task never starts until every task it depends on
// has reached a terminal status, and dispatch always picks the
// lexically-smallest ready id first so two runs over the same graph order
// identically.
func runSchedule(ctx context.Context, graph *taskGraph, tr TaskRunner, strm *stream.Stream, concurrency int) (map[string]*model.ReviewResult, []string, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	reviews := make(map[string]*model.ReviewResult, len(graph.tasks))
	var executionOrder []string

	var mu sync.Mutex
	inFlight := 0
	dispatched := make(map[string]bool, len(graph.tasks))
	doneCh := make(chan taskOutcome, len(graph.tasks))

	// dispatch must be called with mu held. It starts as many ready,
	// not-yet-dispatched tasks as the concurrency cap allows.
	dispatch := func() {
		ids := make([]string, 0, len(graph.tasks))
		for id := range graph.tasks {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			if inFlight >= concurrency {
				return
			}
			if dispatched[id] {
				continue
			}
			task := graph.tasks[id]
			if task.Status != model.TaskPending {
				continue
			}
			if !graph.depsSatisfied(id) {
				continue
			}

			dispatched[id] = true
			task.Status = model.TaskRunning
			inFlight++
			executionOrder = append(executionOrder, id)

			go func(t *model.Task) {
				rr := tr.Run(ctx, t, strm)
				doneCh <- taskOutcome{id: t.ID, review: rr}
			}(task)
		}
	}

	remaining := len(graph.tasks)

	mu.Lock()
	dispatch()
	mu.Unlock()

	for remaining > 0 {
		select {
		case <-ctx.Done():
			return reviews, executionOrder, ctx.Err()
		case out := <-doneCh:
			mu.Lock()
			task := graph.tasks[out.id]
			reviews[out.id] = out.review
			task.Status = taskStatusFromReview(out.review)
			inFlight--
			remaining--
			dispatch()
			mu.Unlock()
		}
	}

	return reviews, executionOrder, nil
}

// taskStatusFromReview derives the task's terminal TaskStatus from the
// review loop's verdict. A review that escalates to INCOMPLETE while its
// last executor result carried NO_EVIDENCE reports NO_EVIDENCE on the task
// rather than the coarser INCOMPLETE, so callers can tell "nothing ran" (a
// pre-flight gate refusal exhausting every iteration) from "ran but didn't
// finish".
func taskStatusFromReview(rr *model.ReviewResult) model.TaskStatus {
	if rr == nil {
		return model.TaskError
	}
	switch rr.FinalStatus {
	case model.ReviewFinalComplete:
		return model.TaskComplete
	case model.ReviewFinalIncomplete:
		if rr.LastResult != nil && rr.LastResult.Status == model.StatusNoEvidence {
			return model.TaskNoEvidence
		}
		return model.TaskIncomplete
	default:
		return model.TaskError
	}
}
