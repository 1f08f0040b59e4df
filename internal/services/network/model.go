package network

import (
	"fmt"
	"unicode/utf8"
)

// APID identifies one access point in the external event stream. For
// the NetworkManager client this is the AP's D-Bus object path.
type APID string

// State is the adapter connectivity state machine.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	// StateLimited means the connection is activated but the IPv4
	// connectivity probe did not report full connectivity.
	StateLimited
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateLimited:
		return "limited"
	}
	return "unknown"
}

// ActivationState mirrors the external connection activation state.
type ActivationState int

const (
	ActivationUnknown ActivationState = iota
	ActivationActivating
	ActivationActivated
	ActivationDeactivating
	ActivationDeactivated
)

// Connectivity mirrors the external IPv4 connectivity probe result.
type Connectivity int

const (
	ConnectivityUnknown Connectivity = iota
	ConnectivityNone
	ConnectivityPortal
	ConnectivityLimited
	ConnectivityFull
)

// deriveState combines activation state with the connectivity probe.
func deriveState(a ActivationState, c Connectivity) State {
	switch a {
	case ActivationActivated:
		if c == ConnectivityFull {
			return StateConnected
		}
		return StateLimited
	case ActivationActivating:
		return StateConnecting
	default:
		return StateDisconnected
	}
}

// accessPoint is one broadcast point contributing to a logical Network.
type accessPoint struct {
	id       APID
	ssid     []byte
	strength uint8
}

// Network is one logical Wi-Fi network: every access point sharing one
// SSID byte string, or a single AP without an SSID. Networks are owned
// by the Wifi reconciler and mutated only on the event loop; consumers
// treat them as read-only.
type Network struct {
	key       string
	ssid      []byte
	anonymous bool

	members  map[APID]*accessPoint
	strength uint8
	active   bool
}

// SSID returns the raw SSID bytes (nil for an anonymous network).
func (n *Network) SSID() []byte {
	return n.ssid
}

// Name returns a display name for the network. Undecodable SSID bytes
// and anonymous networks render as a placeholder.
func (n *Network) Name() string {
	if len(n.ssid) == 0 {
		return "Hidden network"
	}
	if !utf8.Valid(n.ssid) {
		return fmt.Sprintf("<%d-byte SSID>", len(n.ssid))
	}
	return string(n.ssid)
}

// Strength is the maximum strength over all member access points,
// 0-100.
func (n *Network) Strength() uint8 {
	return n.strength
}

// IsActive reports whether this is the adapter's currently associated
// network.
func (n *Network) IsActive() bool {
	return n.active
}

// MemberCount is the number of contributing access points. A network
// with zero members is unreachable and filtered from the visible list.
func (n *Network) MemberCount() int {
	return len(n.members)
}

// recomputeStrength re-derives strength as max over members. Reports
// whether the value changed.
func (n *Network) recomputeStrength() bool {
	var max uint8
	for _, ap := range n.members {
		if ap.strength > max {
			max = ap.strength
		}
	}
	if max == n.strength {
		return false
	}
	n.strength = max
	return true
}

// networkKey derives the collection key for an SSID, or a synthetic
// per-AP key when the SSID is absent.
func networkKey(ssid []byte, id APID) (key string, anonymous bool) {
	if len(ssid) == 0 {
		return "ap\x00" + string(id), true
	}
	return "ssid\x00" + string(ssid), false
}
