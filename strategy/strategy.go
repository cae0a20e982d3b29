// Package strategy binds a Control's activation to a long-running Work using
// one of four policies:
//
//   - blocking: runs the work inline and stalls the dispatcher (anti-pattern,
//     kept for contrast);
//   - offload: runs the work on a new goroutine; nothing stops a user from
//     starting any number of them;
//   - gated: disables the control at click time, runs the work on a goroutine
//     and re-enables the control through a notification channel;
//   - cooperative: disables the control, suspends on a dispatcher timer and
//     re-enables it when resumed, without any extra goroutine.
//
// All activation callbacks run on the dispatcher goroutine. Worker goroutines
// only ever hold a channel sender, never the Control.
package strategy

import (
	"EventLoopDemo/control"
	"EventLoopDemo/i18n"
	"EventLoopDemo/loop"
	"EventLoopDemo/timer"
	"fmt"
	"log"
	"time"
)

// Env carries the collaborators a strategy needs.
type Env struct {
	Dispatcher *loop.Dispatcher
	Registry   *control.Registry

	// Tracker counts pending work. If nil, Bind creates one per control.
	Tracker *Tracker

	// Logger is used for diagnostics. If nil, log.Default() is used.
	Logger *log.Logger

	// OnComplete, if set, runs on the dispatcher goroutine when a gated or
	// cooperative control is re-enabled.
	OnComplete func(id control.ID)
}

func (e Env) withDefaults() Env {
	if e.Tracker == nil {
		e.Tracker = &Tracker{}
	}
	if e.Logger == nil {
		e.Logger = log.Default()
	}
	return e
}

// Bind attaches the variant's strategy to c. The returned detach function
// releases dispatcher-side resources and must be called when the owning
// window goes away.
func Bind(env Env, c *control.Control, v *Variant) (detach func(), err error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	env = env.withDefaults()
	work := Sleep(v.Work())

	switch v.Strategy {
	case KindBlocking:
		Blocking(env, c, work)
	case KindOffload:
		Offload(env, c, work)
	case KindGated:
		return Gated(env, c, work, v.Work())
	case KindCooperative:
		Cooperative(env, c, v.Work())
	}
	return func() {}, nil
}

// Blocking runs work inline. Every other control waits until it returns.
func Blocking(env Env, c *control.Control, work Work) {
	env = env.withDefaults()
	c.OnActivate(func() {
		env.Logger.Printf("[blocking] control %d: running work on the dispatcher", c.ID())
		env.Tracker.Run(work)
	})
}

// Offload runs work on a new goroutine for every activation.
func Offload(env Env, c *control.Control, work Work) {
	env = env.withDefaults()
	c.OnActivate(func() {
		end := env.Tracker.Begin()
		go func() {
			defer end()
			work()
		}()
		env.Logger.Printf("[offload] control %d: %d workers in flight", c.ID(), env.Tracker.Stats().InFlight)
	})
}

// Gated disables c before spawning the worker, so at most one worker per
// control is ever in flight. The worker reports completion over a
// notification channel whose consumer re-enables the control. A worker that
// finishes after its window was closed logs the failed send and exits.
func Gated(env Env, c *control.Control, work Work, expected time.Duration) (detach func(), err error) {
	env = env.withDefaults()
	tx, rx := loop.NewChannel[bool](env.Dispatcher)

	id := c.ID()
	label := c.Label()
	err = rx.Attach(control.Consumer(env.Registry, id, func(c *control.Control, enable bool) {
		if enable {
			c.SetLabel(label)
		}
		c.SetEnabled(enable)
		if enable && env.OnComplete != nil {
			env.OnComplete(id)
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("gated control %d: %w", id, err)
	}

	c.OnActivate(func() {
		c.SetEnabled(false)
		c.SetLabel(busyLabel(expected))
		go func() {
			env.Tracker.Run(work)
			if err := tx.Send(true); err != nil {
				env.Logger.Printf("[gated] control %d: dropping completion: %v", id, err)
			}
		}()
	})
	return rx.Close, nil
}

// Cooperative disables c, suspends for d on the dispatcher and re-enables c
// when resumed. If the control was destroyed meanwhile, nothing is updated.
func Cooperative(env Env, c *control.Control, d time.Duration) {
	env = env.withDefaults()
	id := c.ID()
	label := c.Label()
	c.OnActivate(func() {
		c.SetEnabled(false)
		c.SetLabel(busyLabel(d))
		env.Dispatcher.Go(func(task *loop.Task) {
			end := env.Tracker.Begin()
			defer end()
			task.Sleep(d)
			end()

			c, ok := env.Registry.Lookup(id)
			if !ok {
				env.Logger.Printf("[cooperative] control %d: %v", id, control.ErrExpired)
				return
			}
			c.SetLabel(label)
			c.SetEnabled(true)
			if env.OnComplete != nil {
				env.OnComplete(id)
			}
		})
	})
}

func busyLabel(d time.Duration) string {
	return fmt.Sprintf(i18n.T("Working… %s"), timer.FormatDuration(d))
}
