// Package main contains the application wiring and the AppManager which
// connects the fyne shell, the dispatcher and the click strategies.
//
// Maintenance notes / tips:
//   - Concurrency model: fyne owns the main goroutine and renders the windows.
//     All Control state lives on the dispatcher goroutine (see `loop`). Button
//     taps are forwarded with `EnqueueCommand`; widget updates travel back
//     through `fyne.Do` from the control observers installed by `ui.Shell`.
//   - Unlike a bounded command channel, `EnqueueCommand` never drops a click:
//     the dispatcher ingress is unbounded. The blocking variant therefore
//     queues every click made while it stalls the loop, and they all run once
//     it returns. That is the behavior the demo is meant to show.
//   - `variants` is populated by `Register` before the dispatcher runs and is
//     treated as immutable afterwards.
package main

import (
	"EventLoopDemo/audio"
	"EventLoopDemo/control"
	"EventLoopDemo/i18n"
	"EventLoopDemo/loop"
	"EventLoopDemo/strategy"
	"EventLoopDemo/ui"
	"context"
	"errors"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
)

// AppManager is the main application struct, holding all state.
type AppManager struct {
	logger     *log.Logger
	dispatcher *loop.Dispatcher
	registry   *control.Registry
	shell      *ui.Shell
	chime      *audio.Chime

	variants map[control.ID]*strategy.Variant
	trackers map[control.ID]*strategy.Tracker
}

// NewAppManager creates a new application manager.
func NewAppManager(fyneApp fyne.App, logger *log.Logger) *AppManager {
	a := &AppManager{
		logger:     logger,
		dispatcher: loop.New(loop.Config{Name: "dispatcher", Logger: logger}),
		registry:   control.NewRegistry(),
		variants:   make(map[control.ID]*strategy.Variant),
		trackers:   make(map[control.ID]*strategy.Tracker),
	}
	a.shell = ui.NewShell(fyneApp, a, a.registry)
	return a
}

func (a *AppManager) loadChime() {
	chime, err := audio.NewChime(audio.DefaultSampleRate, audio.DefaultFrequency, audio.DefaultLength, a.logger)
	if err != nil {
		a.logger.Printf("Audio disabled: %v", err)
		return
	}
	if err := chime.Init(); err != nil {
		a.logger.Printf("Audio disabled: %v", err)
	}
	a.chime = chime
}

// Register creates one control and window per variant. It must be called
// before Run. The speaker is only opened if some variant wants a chime.
func (a *AppManager) Register(variants []*strategy.Variant) error {
	for _, v := range variants {
		if v.Chime {
			a.loadChime()
			break
		}
	}
	for _, v := range variants {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("register %q: %w", v.Name, err)
		}
		c, btn := a.shell.CreateControl(i18n.T(v.Label))
		tracker := &strategy.Tracker{}
		env := strategy.Env{
			Dispatcher: a.dispatcher,
			Registry:   a.registry,
			Tracker:    tracker,
			Logger:     a.logger,
			OnComplete: a.onComplete,
		}
		detach, err := strategy.Bind(env, c, v)
		if err != nil {
			return fmt.Errorf("register %q: %w", v.Name, err)
		}
		a.variants[c.ID()] = v
		a.trackers[c.ID()] = tracker

		id := c.ID()
		a.shell.PresentWindow(i18n.T(v.Title), btn, func() {
			a.EnqueueCommand(control.Command{Type: control.CmdDestroy, Target: id})
			detach()
		})
		a.logger.Printf("Registered variant %q (%s) as control %d", v.Name, v.Strategy, id)
	}
	return nil
}

// EnqueueCommand posts a command to the dispatcher. Activations of disabled
// or destroyed controls are ignored there.
func (a *AppManager) EnqueueCommand(cmd control.Command) {
	err := a.dispatcher.Post(func() {
		err := a.registry.Execute(cmd)
		switch {
		case errors.Is(err, control.ErrIgnored), errors.Is(err, control.ErrExpired):
			a.logger.Printf("Command %s on control %d: %v", cmd.Type, cmd.Target, err)
		case err != nil:
			a.logger.Printf("Command %s on control %d failed: %v", cmd.Type, cmd.Target, err)
		}
		a.reply(cmd, err)
	})
	if err != nil {
		a.logger.Printf("EnqueueCommand: dropping %s: %v", cmd.Type, err)
		a.reply(cmd, err)
	}
}

func (a *AppManager) reply(cmd control.Command, err error) {
	if cmd.Reply == nil {
		return
	}
	select {
	case cmd.Reply <- err:
	default:
	}
}

func (a *AppManager) onComplete(id control.ID) {
	v, ok := a.variants[id]
	if !ok || !v.Chime || a.chime == nil {
		return
	}
	a.chime.Play()
}

// Stats returns the work counters of the control with the given id.
func (a *AppManager) Stats(id control.ID) (strategy.Stats, bool) {
	t, ok := a.trackers[id]
	if !ok {
		return strategy.Stats{}, false
	}
	return t.Stats(), true
}

// Run drives the dispatcher until Shutdown or ctx cancellation and returns
// the process exit code.
func (a *AppManager) Run(ctx context.Context) int {
	code := a.dispatcher.Run(ctx)
	for id, t := range a.trackers {
		s := t.Stats()
		a.logger.Printf("Control %d (%s): %d started, %d completed, peak %d in flight",
			id, a.variants[id].Name, s.Started, s.Completed, s.Peak)
	}
	return code
}

// Shutdown asks the dispatcher to stop. Timers still pending are cancelled
// and undelivered notifications are dropped.
func (a *AppManager) Shutdown() {
	a.dispatcher.Quit(loop.ExitSuccess)
}
