// Package stream implements the process-scoped live output stream: a
// bounded ring buffer of model.ExecutorOutputChunk plus filtered
// subscriber fan-out, so a display, a tasklog writer, and a future web UI
// can all watch the same executor run without one of them controlling
// the reader.
package stream

import (
	"sync"
	"time"

	"github.com/pmrun/pmrun/internal/model"
)

// DefaultCapacity is the ring buffer size used when New is given <= 0.
const DefaultCapacity = 4096

// Subscription is a live filtered view onto the stream. Chunks arrive on
// C; the subscriber must drain it or risk being dropped (see Publish).
type Subscription struct {
	C         <-chan model.ExecutorOutputChunk
	taskID    string
	sessionID string
}

// Stream is a singleton-per-session ring buffer with fan-out to
// subscribers. The zero value is not usable; construct with New.
type Stream struct {
	mu       sync.Mutex
	capacity int
	buf      []model.ExecutorOutputChunk
	next     int // write cursor into buf, wraps
	filled   bool
	seq      int

	subs   map[int]chan model.ExecutorOutputChunk
	subSeq int
}

// New returns a Stream with the given ring buffer capacity.
func New(capacity int) *Stream {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stream{
		capacity: capacity,
		buf:      make([]model.ExecutorOutputChunk, capacity),
		subs:     make(map[int]chan model.ExecutorOutputChunk),
	}
}

// Publish appends a chunk to the ring buffer (evicting the oldest entry
// once full) and fans it out to every live subscriber. A subscriber whose
// channel is full has the chunk dropped for it rather than blocking the
// publisher — one slow subscriber must never stall the executor's own
// output pump.
func (s *Stream) Publish(c model.ExecutorOutputChunk) {
	s.mu.Lock()
	c.Sequence = s.seq
	s.seq++
	s.buf[s.next] = c
	s.next = (s.next + 1) % s.capacity
	if s.next == 0 {
		s.filled = true
	}
	subs := make([]chan model.ExecutorOutputChunk, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribe returns a Subscription filtered to (taskID, sessionID): chunks
// for any other task or session, chunks timestamped before minCreatedAt
// (the owning task's creation time), and chunks whose text carries a
// staleness marker are never sent to it. Per
// model.ExecutorOutputChunk.IsStaleFor, an empty taskID or sessionID
// matches nothing (fail-closed) rather than subscribing to everything; a
// zero minCreatedAt disables the timestamp check.
func (s *Stream) Subscribe(taskID, sessionID string, minCreatedAt time.Time, bufSize int) (*Subscription, func()) {
	if bufSize <= 0 {
		bufSize = 256
	}
	ch := make(chan model.ExecutorOutputChunk, bufSize)

	s.mu.Lock()
	id := s.subSeq
	s.subSeq++
	s.subs[id] = ch
	s.mu.Unlock()

	filtered := make(chan model.ExecutorOutputChunk, bufSize)
	done := make(chan struct{})
	go func() {
		defer close(filtered)
		defer func() {
			// Per-subscriber panic isolation: a misbehaving consumer of
			// this goroutine's output must not bring down the publisher
			// or any other subscriber.
			recover()
		}()
		for {
			select {
			case c, ok := <-ch:
				if !ok {
					return
				}
				if c.IsStaleFor(taskID, sessionID, minCreatedAt) {
					continue
				}
				select {
				case filtered <- c:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	unsubscribe := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		close(done)
	}

	return &Subscription{C: filtered, taskID: taskID, sessionID: sessionID}, unsubscribe
}

// Snapshot returns the chunks currently held in the ring buffer, oldest
// first, regardless of subscription filters — used to replay history to a
// newly-attached subscriber.
func (s *Stream) Snapshot() []model.ExecutorOutputChunk {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.filled {
		out := make([]model.ExecutorOutputChunk, s.next)
		copy(out, s.buf[:s.next])
		return out
	}
	out := make([]model.ExecutorOutputChunk, s.capacity)
	copy(out, s.buf[s.next:])
	copy(out[s.capacity-s.next:], s.buf[:s.next])
	return out
}
