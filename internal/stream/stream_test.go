package stream

import (
	"testing"
	"time"

	"github.com/pmrun/pmrun/internal/model"
)

func TestSubscribeFiltersByTaskAndSession(t *testing.T) {
	s := New(16)
	sub, unsubscribe := s.Subscribe("t1", "s1", time.Time{}, 8)
	defer unsubscribe()

	s.Publish(model.ExecutorOutputChunk{TaskID: "t1", SessionID: "s1", Text: "mine"})
	s.Publish(model.ExecutorOutputChunk{TaskID: "t2", SessionID: "s1", Text: "not mine"})
	s.Publish(model.ExecutorOutputChunk{TaskID: "t1", SessionID: "s1", Text: "mine again"})

	var got []string
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case c := <-sub.C:
			got = append(got, c.Text)
		case <-timeout:
			t.Fatalf("timed out waiting for chunks, got %v", got)
		}
	}
	if got[0] != "mine" || got[1] != "mine again" {
		t.Errorf("got %v, want [mine, mine again]", got)
	}
}

func TestSubscribeEmptyFilterSeesNothing(t *testing.T) {
	s := New(16)
	sub, unsubscribe := s.Subscribe("", "", time.Time{}, 8)
	defer unsubscribe()

	s.Publish(model.ExecutorOutputChunk{TaskID: "t1", SessionID: "s1", Text: "anything"})

	select {
	case c := <-sub.C:
		t.Fatalf("empty-filter subscription received a chunk: %v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRingBufferEvictsOldest(t *testing.T) {
	s := New(3)
	for i := 0; i < 5; i++ {
		s.Publish(model.ExecutorOutputChunk{TaskID: "t1", SessionID: "s1", Text: string(rune('a' + i))})
	}
	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot() returned %d entries, want 3", len(snap))
	}
	want := []string{"c", "d", "e"}
	for i, c := range snap {
		if c.Text != want[i] {
			t.Errorf("snap[%d] = %s, want %s", i, c.Text, want[i])
		}
	}
}

func TestPublishSequenceMonotonic(t *testing.T) {
	s := New(16)
	s.Publish(model.ExecutorOutputChunk{TaskID: "t1", SessionID: "s1"})
	s.Publish(model.ExecutorOutputChunk{TaskID: "t1", SessionID: "s1"})
	snap := s.Snapshot()
	if snap[0].Sequence >= snap[1].Sequence {
		t.Errorf("sequence not monotonic: %d, %d", snap[0].Sequence, snap[1].Sequence)
	}
}

func TestSubscribeRejectsChunksOlderThanMinCreatedAt(t *testing.T) {
	s := New(16)
	taskCreated := time.Now()
	sub, unsubscribe := s.Subscribe("t1", "s1", taskCreated, 8)
	defer unsubscribe()

	s.Publish(model.ExecutorOutputChunk{TaskID: "t1", SessionID: "s1", Timestamp: taskCreated.Add(-time.Minute), Text: "stale by clock"})
	s.Publish(model.ExecutorOutputChunk{TaskID: "t1", SessionID: "s1", Timestamp: taskCreated.Add(time.Second), Text: "fresh"})

	select {
	case c := <-sub.C:
		if c.Text != "fresh" {
			t.Fatalf("got %q, want only the chunk timestamped after task creation", c.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the fresh chunk")
	}
}

func TestSubscribeRejectsStalenessMarkerText(t *testing.T) {
	s := New(16)
	sub, unsubscribe := s.Subscribe("t1", "s1", time.Time{}, 8)
	defer unsubscribe()

	s.Publish(model.ExecutorOutputChunk{TaskID: "t1", SessionID: "s1", Text: "README.md already exists, likely done in a previous session"})
	s.Publish(model.ExecutorOutputChunk{TaskID: "t1", SessionID: "s1", Text: "fresh output"})

	select {
	case c := <-sub.C:
		if c.Text != "fresh output" {
			t.Fatalf("got %q, want the staleness-marker chunk filtered out", c.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the non-marker chunk")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := New(16)
	sub, unsubscribe := s.Subscribe("t1", "s1", time.Time{}, 8)
	unsubscribe()

	s.Publish(model.ExecutorOutputChunk{TaskID: "t1", SessionID: "s1", Text: "after unsubscribe"})

	select {
	case _, ok := <-sub.C:
		if ok {
			t.Fatal("received a chunk after unsubscribe")
		}
	case <-time.After(100 * time.Millisecond):
	}
}
