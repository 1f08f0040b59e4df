package network

import (
	"github.com/lumenshell/lumen/internal/observe"
)

// Wired tracks the connectivity state of a wired adapter. It shares the
// state derivation with the wifi adapter but owns no network
// collection.
type Wired struct {
	state State

	// StateChanged fires when the derived connectivity state changes.
	StateChanged observe.Signal[State]
}

// NewWired creates a wired adapter in the disconnected state.
func NewWired() *Wired {
	return &Wired{}
}

// State returns the derived connectivity state.
func (w *Wired) State() State {
	return w.state
}

// SetActivation feeds the connection activation state plus the IPv4
// connectivity probe result into the state machine.
func (w *Wired) SetActivation(a ActivationState, c Connectivity) {
	next := deriveState(a, c)
	if next == w.state {
		return
	}
	w.state = next
	w.StateChanged.Emit(next)
}
