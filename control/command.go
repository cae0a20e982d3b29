// Package control defines the Control model shared by the UI shell and the
// dispatcher, the registry that tracks which controls are still alive, and
// the command messages the UI uses to reach the dispatcher. Commands are
// executed on the dispatcher goroutine so Control state is never mutated from
// anywhere else.
package control

// CommandType enumerates supported command operations.
type CommandType int

const (
	CmdActivate CommandType = iota
	CmdDestroy
)

func (t CommandType) String() string {
	switch t {
	case CmdActivate:
		return "activate"
	case CmdDestroy:
		return "destroy"
	}
	return "unknown"
}

// Command is the message sent from the UI to the dispatcher. The optional
// Reply channel receives the outcome of Registry.Execute (useful for keeping
// callers in sync, and for tests).
type Command struct {
	Type   CommandType
	Target ID         // target control
	Reply  chan error // optional reply channel
}
