// Package ui is the fyne shell around the dispatcher. It creates the buttons
// and windows and mirrors each control.Control onto its widget. Clicks are
// never handled here: they are forwarded to the dispatcher as commands, and
// widget updates come back through fyne.Do.
package ui

import (
	"EventLoopDemo/control"
	"EventLoopDemo/i18n"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// App defines what the shell needs from the application.
type App interface {
	EnqueueCommand(cmd control.Command)
}

// Window size used by every demo window.
const (
	WindowWidth  = 420
	WindowHeight = 120
)

// Shell creates controls and the windows that own them.
type Shell struct {
	fyneApp  fyne.App
	app      App
	registry *control.Registry
}

// NewShell creates a shell backed by fyneApp.
func NewShell(fyneApp fyne.App, a App, registry *control.Registry) *Shell {
	return &Shell{fyneApp: fyneApp, app: a, registry: registry}
}

// CreateControl registers a control and the button that displays it. Tapping
// the button enqueues an activation; the control decides whether to accept it.
// It must be called before the dispatcher runs or on the dispatcher goroutine.
func (s *Shell) CreateControl(label string) (*control.Control, *widget.Button) {
	c := s.registry.Create(label)
	id := c.ID()

	btn := widget.NewButton(label, func() {
		s.app.EnqueueCommand(control.Command{Type: control.CmdActivate, Target: id})
	})
	c.Observe(func(snap control.Snapshot) {
		fyne.Do(func() { applySnapshot(btn, snap) })
	})
	return c, btn
}

func applySnapshot(btn *widget.Button, snap control.Snapshot) {
	btn.SetText(snap.Label)
	if snap.Enabled {
		btn.Enable()
	} else {
		btn.Disable()
	}
}

// PresentWindow shows a window titled after the demo with btn as its only
// content. onClosed runs on the fyne goroutine once the window is closed.
func (s *Shell) PresentWindow(title string, btn *widget.Button, onClosed func()) fyne.Window {
	w := s.fyneApp.NewWindow(fmt.Sprintf(i18n.T("Event Loop Tutorial - %s"), title))
	w.SetContent(container.NewPadded(btn))
	w.Resize(fyne.NewSize(WindowWidth, WindowHeight))
	if onClosed != nil {
		w.SetOnClosed(onClosed)
	}
	w.Show()
	return w
}
