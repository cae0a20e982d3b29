package loop

import (
	"runtime"
	"time"
)

// Task is a callback that can suspend itself without blocking the dispatcher.
//
// The body runs on its own goroutine, but only while the dispatcher goroutine
// is parked waiting for it: control is handed back and forth over unbuffered
// channels, so a task never runs concurrently with any other callback.
type Task struct {
	d      *Dispatcher
	resume chan bool
	yield  chan struct{}
}

// Go starts fn as a task and runs it until its first suspension point or
// until it returns. It must be called on the dispatcher goroutine.
func (d *Dispatcher) Go(fn func(t *Task)) {
	t := &Task{d: d, resume: make(chan bool), yield: make(chan struct{})}
	go func() {
		defer close(t.yield)
		if !<-t.resume {
			return
		}
		if err := Protect(func() { fn(t) }); err != nil {
			d.recordPanic("task", err)
		}
	}()
	t.step(true)
}

// Sleep suspends the task for at least delay, measured from the call, and
// returns on the dispatcher's turn. It must only be called from the task's
// own body.
//
// If the dispatcher tears down first the rest of the task is discarded:
// Sleep does not return, but deferred calls in the task still run. A Sleep
// reached from such a deferred call exits the same way without scheduling.
func (t *Task) Sleep(delay time.Duration) {
	if t.d.state.Load() == stateClosed {
		runtime.Goexit()
	}
	t.d.schedule(delay, func() { t.step(true) }, func() {
		t.step(false)
	})
	t.yield <- struct{}{}
	if !<-t.resume {
		runtime.Goexit()
	}
}

// step hands control to the task and waits until it suspends or finishes.
func (t *Task) step(proceed bool) {
	t.resume <- proceed
	<-t.yield
}
