package level

import (
	"github.com/pkg/errors"

	"github.com/zeusync/slicer/internal/core/canvas"
	"github.com/zeusync/slicer/internal/core/geom"
)

// CommandType names an input a level accepts from outside the simulation.
type CommandType string

const (
	// CommandBlade moves the in-progress blade to Cut.
	CommandBlade CommandType = "blade"
	// CommandCancel drops the in-progress blade.
	CommandCancel CommandType = "cancel"
	// CommandSlice snaps Cut onto the surfaces and applies it. A drag that
	// does not snap is applied as drawn.
	CommandSlice CommandType = "slice"
	// CommandReset restores the full field.
	CommandReset CommandType = "reset"
)

// Valid reports whether t is a command the level understands.
func (t CommandType) Valid() bool {
	switch t {
	case CommandBlade, CommandCancel, CommandSlice, CommandReset:
		return true
	}
	return false
}

// Command is one player input, decoded from the terminal or the network.
type Command struct {
	Type CommandType `json:"type"`
	Cut  geom.Vector `json:"cut,omitempty"`
}

// Apply runs cmd against the level. The result is only meaningful for
// CommandSlice.
func (l *Level) Apply(cmd Command) (canvas.Result, error) {
	switch cmd.Type {
	case CommandBlade:
		l.SetBlade(cmd.Cut)
	case CommandCancel:
		l.ClearBlade()
	case CommandSlice:
		l.ClearBlade()
		if snap, ok := l.ValidateSlice(cmd.Cut); ok {
			return l.Slice(snap.Cut, snap.Surface), nil
		}
		return l.Slice(cmd.Cut), nil
	case CommandReset:
		l.ResetSlices()
	default:
		return canvas.Result{}, errors.Wrapf(ErrUnknownCommand, "%q", cmd.Type)
	}
	return canvas.Result{}, nil
}
