package control

import (
	"EventLoopDemo/loop"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrExpired is returned when the target control has been destroyed.
	ErrExpired = errors.New("control: control no longer exists")

	// ErrIgnored is returned when a disabled control is activated.
	ErrIgnored = errors.New("control: activation ignored while disabled")
)

// ID identifies a control in a Registry.
type ID uint64

// Snapshot is a copy of the observable control state.
type Snapshot struct {
	ID      ID
	Label   string
	Enabled bool
}

// Control is a clickable element with an enabled flag. Its methods must only
// be called on the dispatcher goroutine.
type Control struct {
	id        ID
	label     string
	enabled   bool
	handlers  []func()
	observers []func(Snapshot)
}

// ID returns the control id.
func (c *Control) ID() ID { return c.id }

// Label returns the current label.
func (c *Control) Label() string { return c.label }

// Enabled reports whether activations are accepted.
func (c *Control) Enabled() bool { return c.enabled }

// Snapshot returns the current state.
func (c *Control) Snapshot() Snapshot {
	return Snapshot{ID: c.id, Label: c.label, Enabled: c.enabled}
}

// SetEnabled updates the enabled flag and notifies observers on change.
func (c *Control) SetEnabled(enabled bool) {
	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	c.notify()
}

// SetLabel updates the label and notifies observers on change.
func (c *Control) SetLabel(label string) {
	if c.label == label {
		return
	}
	c.label = label
	c.notify()
}

// OnActivate registers fn to run on every accepted activation. Handlers run
// in registration order.
func (c *Control) OnActivate(fn func()) {
	c.handlers = append(c.handlers, fn)
}

// Observe registers fn to be called with the new state after every change.
func (c *Control) Observe(fn func(Snapshot)) {
	c.observers = append(c.observers, fn)
}

// Activate runs the activation handlers. A disabled control ignores the
// activation and returns ErrIgnored. A panicking handler does not stop the
// others; all failures are joined into the returned error.
func (c *Control) Activate() error {
	if !c.enabled {
		return ErrIgnored
	}
	var errs []error
	for i, fn := range c.handlers {
		if err := loop.Protect(fn); err != nil {
			errs = append(errs, fmt.Errorf("control %d handler %d: %w", c.id, i, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Control) notify() {
	s := c.Snapshot()
	for _, fn := range c.observers {
		fn(s)
	}
}

// Registry tracks live controls by id. The core only ever holds ids and
// resolves them through Lookup, so a destroyed control is simply missing.
type Registry struct {
	mu       sync.RWMutex
	next     ID
	controls map[ID]*Control
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{controls: make(map[ID]*Control)}
}

// Create adds an enabled control with the given label.
func (r *Registry) Create(label string) *Control {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	c := &Control{id: r.next, label: label, enabled: true}
	r.controls[c.id] = c
	return c
}

// Lookup returns the control for id if it is still alive.
func (r *Registry) Lookup(id ID) (*Control, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.controls[id]
	return c, ok
}

// Destroy removes the control. It reports whether the control existed.
func (r *Registry) Destroy(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.controls[id]; !ok {
		return false
	}
	delete(r.controls, id)
	return true
}

// Len returns the number of live controls.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.controls)
}

// Execute applies cmd. It must run on the dispatcher goroutine.
func (r *Registry) Execute(cmd Command) error {
	switch cmd.Type {
	case CmdActivate:
		c, ok := r.Lookup(cmd.Target)
		if !ok {
			return ErrExpired
		}
		return c.Activate()
	case CmdDestroy:
		if !r.Destroy(cmd.Target) {
			return ErrExpired
		}
		return nil
	}
	return fmt.Errorf("control: unknown command %d", cmd.Type)
}

// Consumer returns a channel handler that applies each message to the
// control with the given id. Once the control is destroyed messages are
// skipped and the handler stays registered.
func Consumer[T any](r *Registry, id ID, apply func(c *Control, v T)) func(T) bool {
	return func(v T) bool {
		if c, ok := r.Lookup(id); ok {
			apply(c, v)
		}
		return true
	}
}
