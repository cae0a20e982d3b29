package loop

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrChannelClosed is returned by Send once the receiving side was torn down.
	ErrChannelClosed = errors.New("loop: notification channel is closed")

	// ErrAlreadyAttached is returned when a second handler is attached to a receiver.
	ErrAlreadyAttached = errors.New("loop: receiver already has a handler")
)

// channel is an unbounded multi-producer queue consumed on the dispatcher
// goroutine.
type channel[T any] struct {
	d *Dispatcher

	mu        sync.Mutex
	queue     []T
	handler   func(T) bool
	scheduled bool
	closed    bool
}

// Sender is the producing end of a notification channel. It is safe to share
// between any number of goroutines.
type Sender[T any] struct {
	ch *channel[T]
}

// Receiver is the consuming end of a notification channel. Its handler always
// runs on the dispatcher goroutine.
type Receiver[T any] struct {
	ch *channel[T]
}

// NewChannel creates a notification channel bound to d. Messages are queued
// until a handler is attached.
func NewChannel[T any](d *Dispatcher) (*Sender[T], *Receiver[T]) {
	ch := &channel[T]{d: d}
	if !d.track(ch) {
		ch.closed = true
	}
	return &Sender[T]{ch: ch}, &Receiver[T]{ch: ch}
}

// Send queues v for delivery. Messages from a single goroutine are delivered
// in send order.
func (s *Sender[T]) Send(v T) error {
	c := s.ch
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	c.queue = append(c.queue, v)
	wake := c.handler != nil && !c.scheduled
	if wake {
		c.scheduled = true
	}
	c.mu.Unlock()

	if wake && !c.d.markReady(c) {
		return ErrChannelClosed
	}
	return nil
}

// Attach registers handler for every delivered message. Returning false from
// the handler closes the channel.
func (r *Receiver[T]) Attach(handler func(T) bool) error {
	c := r.ch
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	if c.handler != nil {
		c.mu.Unlock()
		return ErrAlreadyAttached
	}
	c.handler = handler
	wake := len(c.queue) > 0 && !c.scheduled
	if wake {
		c.scheduled = true
	}
	c.mu.Unlock()

	if wake {
		c.d.markReady(c)
	}
	return nil
}

// Close detaches the receiver. Pending messages are discarded and later sends
// fail with ErrChannelClosed. Close is safe to call from any goroutine and
// more than once.
func (r *Receiver[T]) Close() {
	if n := r.ch.shutdown(); n > 0 {
		atomic.AddInt64(&r.ch.d.stats.Dropped, int64(n))
		r.ch.d.cfg.Logger.Printf("[%s] channel closed with %d undelivered messages", r.ch.d.cfg.Name, n)
	}
	r.ch.d.untrack(r.ch)
}

// Closed reports whether the channel no longer accepts messages.
func (r *Receiver[T]) Closed() bool {
	return r.ch.isClosed()
}

func (c *channel[T]) deliver() {
	c.mu.Lock()
	batch := c.queue
	c.queue = nil
	c.scheduled = false
	handler := c.handler
	closed := c.closed
	c.mu.Unlock()

	if closed || handler == nil {
		return
	}
	for i, v := range batch {
		// the receiver may be closed by the handler itself or by another goroutine
		if c.isClosed() {
			atomic.AddInt64(&c.d.stats.Dropped, int64(len(batch)-i))
			return
		}
		keep := true
		atomic.AddInt64(&c.d.stats.Delivered, 1)
		if err := Protect(func() { keep = handler(v) }); err != nil {
			c.d.recordPanic("channel handler", err)
			continue
		}
		if !keep {
			dropped := len(batch) - i - 1 + c.shutdown()
			if dropped > 0 {
				atomic.AddInt64(&c.d.stats.Dropped, int64(dropped))
			}
			c.d.untrack(c)
			return
		}
	}
}

func (c *channel[T]) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// shutdown closes the channel and returns the number of discarded messages.
func (c *channel[T]) shutdown() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0
	}
	c.closed = true
	n := len(c.queue)
	c.queue = nil
	c.handler = nil
	return n
}
