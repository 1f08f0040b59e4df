package network

import (
	"bytes"
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/logging"
	"github.com/lumenshell/lumen/internal/observe"
)

// RescanInterval is how often a scanning wifi adapter requests a fresh
// scan from the backend.
const RescanInterval = 10 * time.Second

// Controller is the mutating half of the external NetworkManager-like
// API. Calls may block and are issued off the event loop; failures are
// logged, never fatal.
type Controller interface {
	SetWirelessEnabled(ctx context.Context, enabled bool) error
	RequestScan(ctx context.Context) error
}

// Wifi reconciles the external access-point stream into a collection of
// logical Networks grouped by SSID, tracks the active network, and
// derives the adapter connectivity state. All methods must be called on
// the event loop.
type Wifi struct {
	loop *eventloop.Loop
	ctrl Controller

	networks map[string]*Network
	// index maps an AP to its owning Network. Membership changes go
	// through this index; nothing scans the collection to find an
	// AP's owner.
	index map[APID]*Network
	aps   map[APID]*accessPoint

	active     *Network
	activeAP   APID
	state      State
	activation ActivationState
	enabled    bool
	scanning   bool

	cancelRescan func()

	// NetworksChanged fires with the visible network list after any
	// membership, strength, or ordering change.
	NetworksChanged observe.Signal[[]*Network]
	// ActiveChanged fires when the adapter's associated network
	// changes; nil means no active network. Dependent display state
	// must be recomputed by subscribers on every fire, even to nil.
	ActiveChanged observe.Signal[*Network]
	// StateChanged fires when the derived connectivity state changes.
	StateChanged observe.Signal[State]
	// EnabledChanged fires when wireless enablement is reported.
	EnabledChanged observe.Signal[bool]
	// ScanningChanged fires when scanning starts or stops.
	ScanningChanged observe.Signal[bool]
}

// NewWifi creates an empty wifi reconciler that drives ctrl for
// mutating calls.
func NewWifi(loop *eventloop.Loop, ctrl Controller) *Wifi {
	return &Wifi{
		loop:     loop,
		ctrl:     ctrl,
		networks: make(map[string]*Network),
		index:    make(map[APID]*Network),
		aps:      make(map[APID]*accessPoint),
	}
}

// Networks returns the visible networks (member count > 0), sorted by
// descending strength, then name, with the active network first.
func (w *Wifi) Networks() []*Network {
	out := make([]*Network, 0, len(w.networks))
	for _, n := range w.networks {
		if n.MemberCount() > 0 {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.active != b.active {
			return a.active
		}
		if a.strength != b.strength {
			return a.strength > b.strength
		}
		return a.Name() < b.Name()
	})
	return out
}

// Active returns the adapter's associated network, or nil.
func (w *Wifi) Active() *Network {
	return w.active
}

// State returns the derived connectivity state.
func (w *Wifi) State() State {
	return w.state
}

// Enabled reports the last known wireless enablement.
func (w *Wifi) Enabled() bool {
	return w.enabled
}

// Scanning reports whether the periodic rescan loop is running.
func (w *Wifi) Scanning() bool {
	return w.scanning
}

// AddAccessPoint feeds an AP-added event into the reconciler.
func (w *Wifi) AddAccessPoint(id APID, ssid []byte, strength uint8) {
	if _, exists := w.aps[id]; exists {
		w.UpdateAccessPoint(id, ssid, strength)
		return
	}
	ap := &accessPoint{id: id, ssid: append([]byte(nil), ssid...), strength: strength}
	w.aps[id] = ap
	w.attach(ap)
	w.publishNetworks()
	w.refreshActive()
}

// RemoveAccessPoint feeds an AP-removed event into the reconciler.
func (w *Wifi) RemoveAccessPoint(id APID) {
	ap, ok := w.aps[id]
	if !ok {
		return
	}
	delete(w.aps, id)
	w.detach(ap)
	w.publishNetworks()
	w.refreshActive()
}

// UpdateAccessPoint feeds an AP property change into the reconciler. An
// SSID change moves the AP between networks (remove from old, add to
// new); a strength change recomputes the owning network's strength.
func (w *Wifi) UpdateAccessPoint(id APID, ssid []byte, strength uint8) {
	ap, ok := w.aps[id]
	if !ok {
		w.AddAccessPoint(id, ssid, strength)
		return
	}

	dirty := false
	if !bytes.Equal(ap.ssid, ssid) {
		w.detach(ap)
		ap.ssid = append([]byte(nil), ssid...)
		ap.strength = strength
		w.attach(ap)
		dirty = true
	} else if ap.strength != strength {
		ap.strength = strength
		if owner := w.index[id]; owner != nil && owner.recomputeStrength() {
			dirty = true
		}
	}

	if dirty {
		w.publishNetworks()
		w.refreshActive()
	}
}

// attach adds ap to the network keyed by its SSID, creating the network
// on first membership.
func (w *Wifi) attach(ap *accessPoint) {
	key, anonymous := networkKey(ap.ssid, ap.id)
	n, ok := w.networks[key]
	if !ok {
		n = &Network{
			key:       key,
			ssid:      append([]byte(nil), ap.ssid...),
			anonymous: anonymous,
			members:   make(map[APID]*accessPoint),
		}
		w.networks[key] = n
	}
	n.members[ap.id] = ap
	w.index[ap.id] = n
	n.recomputeStrength()
}

// detach removes ap from its owning network via the membership index.
// The last member's removal retires the network: it drops out of the
// collection, and the active reference is cleared if it pointed there.
func (w *Wifi) detach(ap *accessPoint) {
	n := w.index[ap.id]
	if n == nil {
		return
	}
	delete(n.members, ap.id)
	delete(w.index, ap.id)
	if len(n.members) == 0 {
		delete(w.networks, n.key)
		if n.active {
			n.active = false
		}
		if w.active == n {
			w.active = nil
			w.ActiveChanged.Emit(nil)
		}
		return
	}
	n.recomputeStrength()
}

// SetActiveAccessPoint feeds the adapter's associated-AP change into
// the reconciler. Empty means not associated.
func (w *Wifi) SetActiveAccessPoint(id APID) {
	w.activeAP = id
	w.refreshActive()
}

// refreshActive re-derives the active network from the associated AP
// through the membership index and pushes the change to dependents.
// This is called after every mutation that could move the association;
// chains through a nil active network cannot be evaluated declaratively
// by subscribers, so the reconciler re-emits explicitly.
func (w *Wifi) refreshActive() {
	var next *Network
	if w.activeAP != "" {
		next = w.index[w.activeAP]
	}
	if next == w.active {
		return
	}
	if w.active != nil {
		w.active.active = false
	}
	w.active = next
	if next != nil {
		next.active = true
	}
	w.ActiveChanged.Emit(next)
	w.publishNetworks()
}

// SetActivation feeds the connection activation state plus the IPv4
// connectivity probe result into the state machine.
func (w *Wifi) SetActivation(a ActivationState, c Connectivity) {
	w.activation = a
	next := deriveState(a, c)
	if next == w.state {
		return
	}
	w.state = next
	w.StateChanged.Emit(next)
}

// SetEnabledReported feeds the externally reported wireless enablement.
func (w *Wifi) SetEnabledReported(enabled bool) {
	if w.enabled == enabled {
		return
	}
	w.enabled = enabled
	w.EnabledChanged.Emit(enabled)
}

// SetEnabled asks the backend to enable or disable wireless. Disabling
// forces scanning off first.
func (w *Wifi) SetEnabled(enabled bool) {
	if !enabled {
		w.SetScanning(false)
	}
	ctrl := w.ctrl
	go func() {
		if err := ctrl.SetWirelessEnabled(context.Background(), enabled); err != nil {
			w.loop.Post(func() {
				logging.Warn("Failed to set wireless enablement",
					zap.Bool("enabled", enabled), zap.Error(err))
			})
		}
	}()
}

// SetScanning starts or stops the periodic rescan loop. Starting issues
// an immediate scan request; scanning stays on until explicitly
// stopped.
func (w *Wifi) SetScanning(scanning bool) {
	if w.scanning == scanning {
		return
	}
	w.scanning = scanning
	if scanning {
		w.requestScan()
		w.cancelRescan = w.loop.Every(RescanInterval, w.requestScan)
	} else if w.cancelRescan != nil {
		w.cancelRescan()
		w.cancelRescan = nil
	}
	w.ScanningChanged.Emit(scanning)
}

func (w *Wifi) requestScan() {
	if !w.scanning {
		return
	}
	ctrl := w.ctrl
	go func() {
		if err := ctrl.RequestScan(context.Background()); err != nil {
			w.loop.Post(func() {
				logging.Debug("Scan request failed", zap.Error(err))
			})
		}
	}()
}

// publishNetworks emits the sorted visible list.
func (w *Wifi) publishNetworks() {
	w.NetworksChanged.Emit(w.Networks())
}
