package strategy

import (
	"sync"
	"sync/atomic"
	"time"
)

// Work is a long-running blocking operation.
type Work func()

// Sleep returns Work that blocks for d. It stands in for any slow call.
func Sleep(d time.Duration) Work {
	return func() { time.Sleep(d) }
}

// Stats is a snapshot of Tracker counters.
type Stats struct {
	Started   int64
	Completed int64
	InFlight  int64
	Peak      int64 // highest InFlight ever observed
}

// Tracker counts pending work. It is safe for concurrent use.
type Tracker struct {
	started   atomic.Int64
	completed atomic.Int64
	inFlight  atomic.Int64
	peak      atomic.Int64
}

// Begin records the start of a unit of work and returns the function that
// records its end. Calling end more than once has no further effect.
func (t *Tracker) Begin() (end func()) {
	t.started.Add(1)
	n := t.inFlight.Add(1)
	for {
		p := t.peak.Load()
		if n <= p || t.peak.CompareAndSwap(p, n) {
			break
		}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			t.inFlight.Add(-1)
			t.completed.Add(1)
		})
	}
}

// Run executes w between Begin and end.
func (t *Tracker) Run(w Work) {
	end := t.Begin()
	defer end()
	w()
}

// Stats returns a snapshot of the counters.
func (t *Tracker) Stats() Stats {
	return Stats{
		Started:   t.started.Load(),
		Completed: t.completed.Load(),
		InFlight:  t.inFlight.Load(),
		Peak:      t.peak.Load(),
	}
}
