package bluetooth

import "context"

// DeviceID identifies a device in the external object-manager stream.
// For the BlueZ client this is the device's D-Bus object path.
type DeviceID string

// AdapterID identifies a bluetooth adapter.
type AdapterID string

// ConnState is the per-device connection state machine. Connecting is
// not a stored flag: it is the presence of a live cancellable connect
// operation.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "unknown"
}

// Device is one bluetooth device owned by the reconciler. Mutated only
// on the event loop; consumers treat it as read-only.
type Device struct {
	id      DeviceID
	adapter AdapterID

	name    string
	address string
	paired  bool
	trusted bool
	// connected is the externally reported link state.
	connected bool

	// cancelConnect is non-nil exactly while a connect operation is in
	// flight; its presence is what makes State() report Connecting.
	cancelConnect context.CancelFunc
}

// ID returns the device identifier.
func (d *Device) ID() DeviceID { return d.id }

// Adapter returns the owning adapter identifier.
func (d *Device) Adapter() AdapterID { return d.adapter }

// Name returns the resolved device name; empty while unresolved.
// Unnamed devices are hidden from the visible list.
func (d *Device) Name() string { return d.name }

// Address returns the device hardware address.
func (d *Device) Address() string { return d.address }

// Paired reports whether the device is paired.
func (d *Device) Paired() bool { return d.paired }

// State derives the connection state.
func (d *Device) State() ConnState {
	if d.cancelConnect != nil {
		return StateConnecting
	}
	if d.connected {
		return StateConnected
	}
	return StateDisconnected
}
