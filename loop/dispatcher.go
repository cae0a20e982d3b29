// Package loop implements the cooperative dispatcher: a single goroutine that
// runs posted callbacks to completion, delivers notification channel messages
// and fires cooperative timers.
//
// Maintenance notes:
//   - Everything reachable from Run (the timer queue, attached handlers, tasks)
//     is owned by the dispatcher goroutine. Other goroutines may only use Post,
//     Quit, Stats and Sender.Send.
//   - Each iteration runs, in order: the posted callbacks queued so far, the
//     channels that have pending messages, the timers that are due. Work queued
//     while an iteration runs is picked up by the next one.
//   - Nothing is dropped while the dispatcher runs. Work still queued when it
//     tears down is discarded and counted in Stats.Dropped.
package loop

import (
	"EventLoopDemo/timer"
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Exit codes returned by Run.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

var (
	// ErrClosed is returned when work is posted to a dispatcher that has torn down.
	ErrClosed = errors.New("loop: dispatcher is closed")

	// ErrAlreadyRunning is reported when Run is called twice.
	ErrAlreadyRunning = errors.New("loop: dispatcher is already running")
)

const (
	stateIdle int32 = iota
	stateRunning
	stateClosed
)

// Config holds dispatcher construction parameters.
type Config struct {
	// Name is used as the log prefix. Defaults to "loop".
	Name string

	// Logger is used for diagnostics. If nil, log.Default() is used.
	Logger *log.Logger
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "loop"
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

// Stats exposes live dispatcher counters. All fields are updated atomically.
type Stats struct {
	Callbacks       int64 // posted callbacks run
	Panics          int64 // callbacks, handlers or tasks that panicked
	Delivered       int64 // channel messages handed to a handler
	TimersFired     int64
	TimersCancelled int64
	Dropped         int64 // callbacks and messages discarded at teardown
}

// pump is the non-generic view of a channel the dispatcher needs.
type pump interface {
	deliver()
	shutdown() int
}

// Dispatcher is a single-goroutine cooperative scheduler.
//
// Lifecycle:
//
//	d := loop.New(loop.Config{})
//	d.Post(fn)          // from any goroutine
//	code := d.Run(ctx)  // blocks until Quit or ctx is done
type Dispatcher struct {
	cfg   Config
	state atomic.Int32

	mu       sync.Mutex
	ingress  []func()
	ready    []pump
	channels map[pump]struct{}
	quitting bool
	exitCode int

	wake chan struct{}

	// owned by the dispatcher goroutine
	timers timer.Queue

	stats Stats
}

// New creates a dispatcher. Work may be posted before Run is called.
func New(cfg Config) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg.withDefaults(),
		channels: make(map[pump]struct{}),
		wake:     make(chan struct{}, 1),
	}
}

// Post queues fn to run on the dispatcher goroutine. It never blocks.
func (d *Dispatcher) Post(fn func()) error {
	d.mu.Lock()
	if d.state.Load() == stateClosed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.ingress = append(d.ingress, fn)
	d.mu.Unlock()
	d.signal()
	return nil
}

// Quit asks Run to return code after the current iteration. Only the first
// call sets the exit code.
func (d *Dispatcher) Quit(code int) {
	d.mu.Lock()
	if !d.quitting {
		d.quitting = true
		d.exitCode = code
	}
	d.mu.Unlock()
	d.signal()
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Callbacks:       atomic.LoadInt64(&d.stats.Callbacks),
		Panics:          atomic.LoadInt64(&d.stats.Panics),
		Delivered:       atomic.LoadInt64(&d.stats.Delivered),
		TimersFired:     atomic.LoadInt64(&d.stats.TimersFired),
		TimersCancelled: atomic.LoadInt64(&d.stats.TimersCancelled),
		Dropped:         atomic.LoadInt64(&d.stats.Dropped),
	}
}

// AfterFunc schedules fn to run on the dispatcher goroutine once delay has
// elapsed. It must be called on the dispatcher goroutine.
func (d *Dispatcher) AfterFunc(delay time.Duration, fn func()) *timer.Handle {
	return d.schedule(delay, func() { d.call("timer", fn) }, nil)
}

func (d *Dispatcher) schedule(delay time.Duration, onElapsed, onCancel func()) *timer.Handle {
	h := timer.New(time.Now().Add(delay), onElapsed, onCancel)
	d.timers.Push(h)
	return h
}

// Run processes events on the calling goroutine until Quit is called or ctx
// is done, then tears the dispatcher down and returns the exit code.
func (d *Dispatcher) Run(ctx context.Context) int {
	if !d.state.CompareAndSwap(stateIdle, stateRunning) {
		d.cfg.Logger.Printf("[%s] run: %v", d.cfg.Name, ErrAlreadyRunning)
		return ExitFailure
	}
	d.cfg.Logger.Printf("[%s] started", d.cfg.Name)

	wait := time.NewTimer(time.Hour)
	wait.Stop()
	defer wait.Stop()

	for {
		d.runIngress()
		d.deliverReady()
		d.fireDue(time.Now())

		if code, ok := d.quitRequested(); ok {
			d.teardown()
			d.cfg.Logger.Printf("[%s] stopped (exit code %d)", d.cfg.Name, code)
			return code
		}

		var due <-chan time.Time
		if next, ok := d.timers.Next(); ok {
			wait.Reset(time.Until(next))
			due = wait.C
		}

		select {
		case <-d.wake:
		case <-due:
		case <-ctx.Done():
			d.Quit(ExitSuccess)
		}
		wait.Stop()
	}
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) quitRequested() (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exitCode, d.quitting
}

func (d *Dispatcher) runIngress() {
	d.mu.Lock()
	batch := d.ingress
	d.ingress = nil
	d.mu.Unlock()

	for _, fn := range batch {
		atomic.AddInt64(&d.stats.Callbacks, 1)
		d.call("callback", fn)
	}
}

func (d *Dispatcher) deliverReady() {
	d.mu.Lock()
	batch := d.ready
	d.ready = nil
	d.mu.Unlock()

	for _, p := range batch {
		p.deliver()
	}
}

func (d *Dispatcher) fireDue(now time.Time) {
	for _, h := range d.timers.PopDue(now) {
		if h.Elapse() {
			atomic.AddInt64(&d.stats.TimersFired, 1)
		}
	}
}

// call runs fn with panic isolation.
func (d *Dispatcher) call(kind string, fn func()) {
	if err := Protect(fn); err != nil {
		d.recordPanic(kind, err)
	}
}

func (d *Dispatcher) recordPanic(kind string, err error) {
	atomic.AddInt64(&d.stats.Panics, 1)
	var pe *PanicError
	if errors.As(err, &pe) {
		d.cfg.Logger.Printf("[%s] %s failed: %v\n%s", d.cfg.Name, kind, err, pe.Stack)
		return
	}
	d.cfg.Logger.Printf("[%s] %s failed: %v", d.cfg.Name, kind, err)
}

// markReady queues p for delivery on the next iteration. It reports false if
// the dispatcher has torn down.
func (d *Dispatcher) markReady(p pump) bool {
	d.mu.Lock()
	if d.state.Load() == stateClosed {
		d.mu.Unlock()
		return false
	}
	d.ready = append(d.ready, p)
	d.mu.Unlock()
	d.signal()
	return true
}

// track registers p so teardown can close it. It reports false if the
// dispatcher has torn down.
func (d *Dispatcher) track(p pump) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Load() == stateClosed {
		return false
	}
	d.channels[p] = struct{}{}
	return true
}

func (d *Dispatcher) untrack(p pump) {
	d.mu.Lock()
	delete(d.channels, p)
	d.mu.Unlock()
}

func (d *Dispatcher) teardown() {
	d.mu.Lock()
	d.state.Store(stateClosed)
	dropped := len(d.ingress)
	d.ingress = nil
	d.ready = nil
	channels := make([]pump, 0, len(d.channels))
	for p := range d.channels {
		channels = append(channels, p)
	}
	d.channels = make(map[pump]struct{})
	d.mu.Unlock()

	for _, h := range d.timers.Drain() {
		if h.Cancel() {
			atomic.AddInt64(&d.stats.TimersCancelled, 1)
		}
	}
	for _, p := range channels {
		dropped += p.shutdown()
	}
	if dropped > 0 {
		atomic.AddInt64(&d.stats.Dropped, int64(dropped))
		d.cfg.Logger.Printf("[%s] teardown: dropped %d pending items", d.cfg.Name, dropped)
	}
}
