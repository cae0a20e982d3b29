// Package timer contains the cooperative timer primitives used by the
// dispatcher: a one-shot Handle with a small state machine and a
// deadline-ordered Queue.
//
// Maintenance notes:
//   - A Handle is created on the dispatcher goroutine and its continuation is
//     always run there. The state field is atomic only so tests and logging
//     can read it from other goroutines.
//   - Transitions are one-shot. Elapse and Cancel both return false if the
//     handle already left StateScheduled, which is what guarantees a single
//     resumption per suspension.
package timer

import (
	"container/heap"
	"sync/atomic"
	"time"
)

// State defines the possible states of a cooperative timer.
type State int32

const (
	StateScheduled State = iota
	StateElapsed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateElapsed:
		return "elapsed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Handle represents a pending timed resumption.
type Handle struct {
	deadline  time.Time
	seq       uint64
	index     int
	state     atomic.Int32
	onElapsed func()
	onCancel  func()
}

// New creates a scheduled handle. onCancel may be nil.
func New(deadline time.Time, onElapsed, onCancel func()) *Handle {
	return &Handle{deadline: deadline, index: -1, onElapsed: onElapsed, onCancel: onCancel}
}

// Deadline returns the time at which the handle becomes due.
func (h *Handle) Deadline() time.Time {
	return h.deadline
}

// State returns the current state in a thread-safe manner.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Elapse moves the handle to StateElapsed and runs its continuation.
func (h *Handle) Elapse() bool {
	if !h.state.CompareAndSwap(int32(StateScheduled), int32(StateElapsed)) {
		return false
	}
	if h.onElapsed != nil {
		h.onElapsed()
	}
	return true
}

// Cancel moves the handle to StateCancelled. The continuation is discarded.
func (h *Handle) Cancel() bool {
	if !h.state.CompareAndSwap(int32(StateScheduled), int32(StateCancelled)) {
		return false
	}
	if h.onCancel != nil {
		h.onCancel()
	}
	return true
}

// Queue is a min-heap of handles ordered by deadline, then by push order.
// It is not safe for concurrent use.
type Queue struct {
	items handles
	seq   uint64
}

// Push schedules h.
func (q *Queue) Push(h *Handle) {
	q.seq++
	h.seq = q.seq
	heap.Push(&q.items, h)
}

// Len returns the number of queued handles.
func (q *Queue) Len() int {
	return len(q.items)
}

// Next returns the earliest deadline, if any.
func (q *Queue) Next() (time.Time, bool) {
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].deadline, true
}

// PopDue removes and returns every handle whose deadline is not after now,
// earliest first.
func (q *Queue) PopDue(now time.Time) []*Handle {
	var due []*Handle
	for len(q.items) > 0 && !q.items[0].deadline.After(now) {
		due = append(due, heap.Pop(&q.items).(*Handle))
	}
	return due
}

// Drain removes and returns all handles.
func (q *Queue) Drain() []*Handle {
	var all []*Handle
	for len(q.items) > 0 {
		all = append(all, heap.Pop(&q.items).(*Handle))
	}
	return all
}

type handles []*Handle

func (h handles) Len() int { return len(h) }

func (h handles) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h handles) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *handles) Push(x any) {
	item := x.(*Handle)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *handles) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}
