package bluetooth

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/logging"
	"github.com/lumenshell/lumen/internal/observe"
)

// Controller is the mutating half of the external bluetooth API.
// Connect honors context cancellation cooperatively: the lower layer
// may still complete after cancel, and the reconciler re-derives device
// state in the completion callback either way.
type Controller interface {
	Connect(ctx context.Context, id DeviceID) error
	Disconnect(ctx context.Context, id DeviceID) error
	SetPowered(ctx context.Context, adapter AdapterID, powered bool) error
	SetDiscoverable(adapter AdapterID, discoverable bool) error
	StartDiscovery(adapter AdapterID) error
	StopDiscovery(adapter AdapterID) error
}

// Reconciler maintains the device collection mirrored from the external
// object-manager stream, the default adapter, and per-device connect
// state machines. All methods must be called on the event loop.
type Reconciler struct {
	loop *eventloop.Loop
	ctrl Controller

	// adapters in registration order; the first registered adapter is
	// the default. No multi-adapter support.
	adapters []AdapterID
	powered  bool
	scanning bool

	devices map[DeviceID]*Device

	// DevicesChanged fires with the visible device list after any
	// membership or state change.
	DevicesChanged observe.Signal[[]*Device]
	// PoweredChanged fires when the default adapter's power state is
	// reported.
	PoweredChanged observe.Signal[bool]
	// ScanningChanged fires when discovery starts or stops.
	ScanningChanged observe.Signal[bool]
}

// New creates an empty reconciler that drives ctrl for mutating calls.
func New(loop *eventloop.Loop, ctrl Controller) *Reconciler {
	return &Reconciler{
		loop:    loop,
		ctrl:    ctrl,
		devices: make(map[DeviceID]*Device),
	}
}

// DefaultAdapter returns the default adapter id, or "" when none is
// registered.
func (r *Reconciler) DefaultAdapter() AdapterID {
	if len(r.adapters) == 0 {
		return ""
	}
	return r.adapters[0]
}

// Powered reports the default adapter's last known power state.
func (r *Reconciler) Powered() bool {
	return r.powered
}

// Scanning reports whether discovery is running.
func (r *Reconciler) Scanning() bool {
	return r.scanning
}

// Devices returns the visible devices: those owned by the default
// adapter that have a resolved name, connected first, then by name.
func (r *Reconciler) Devices() []*Device {
	def := r.DefaultAdapter()
	out := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		if d.adapter == def && d.name != "" {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ac, bc := a.State() == StateConnected, b.State() == StateConnected
		if ac != bc {
			return ac
		}
		return a.name < b.name
	})
	return out
}

// Connected returns the connected subset of the visible devices.
func (r *Reconciler) Connected() []*Device {
	visible := r.Devices()
	out := make([]*Device, 0, len(visible))
	for _, d := range visible {
		if d.State() == StateConnected {
			out = append(out, d)
		}
	}
	return out
}

// AddAdapter feeds an adapter-registered event. The first adapter
// becomes the default.
func (r *Reconciler) AddAdapter(id AdapterID, powered bool) {
	for _, a := range r.adapters {
		if a == id {
			return
		}
	}
	wasEmpty := len(r.adapters) == 0
	r.adapters = append(r.adapters, id)
	if wasEmpty {
		r.setPoweredReported(powered)
		r.publish()
	}
}

// RemoveAdapter feeds an adapter-removed event. Removing the default
// promotes the next candidate (if any) and re-filters visibility.
func (r *Reconciler) RemoveAdapter(id AdapterID) {
	idx := -1
	for i, a := range r.adapters {
		if a == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	wasDefault := idx == 0
	r.adapters = append(r.adapters[:idx], r.adapters[idx+1:]...)
	if wasDefault {
		if r.scanning {
			r.scanning = false
			r.ScanningChanged.Emit(false)
		}
		r.setPoweredReported(false)
		r.publish()
	}
}

// SetPoweredReported feeds the default adapter's externally reported
// power state.
func (r *Reconciler) SetPoweredReported(powered bool) {
	r.setPoweredReported(powered)
}

func (r *Reconciler) setPoweredReported(powered bool) {
	if r.powered == powered {
		return
	}
	r.powered = powered
	r.PoweredChanged.Emit(powered)
}

// AddDevice feeds a device-registered event from the object-manager
// stream.
func (r *Reconciler) AddDevice(id DeviceID, adapter AdapterID, name, address string, connected, paired bool) {
	if d, exists := r.devices[id]; exists {
		d.name = name
		d.address = address
		d.connected = connected
		d.paired = paired
		r.publish()
		return
	}
	r.devices[id] = &Device{
		id:        id,
		adapter:   adapter,
		name:      name,
		address:   address,
		connected: connected,
		paired:    paired,
	}
	r.publish()
}

// RemoveDevice feeds a device-removed event. An in-flight connect is
// cancelled; its completion callback finds the device gone and only
// tears down.
func (r *Reconciler) RemoveDevice(id DeviceID) {
	d, ok := r.devices[id]
	if !ok {
		return
	}
	if d.cancelConnect != nil {
		d.cancelConnect()
		d.cancelConnect = nil
	}
	delete(r.devices, id)
	r.publish()
}

// UpdateDevice feeds a device property change (name resolution,
// connected flag, pairing).
func (r *Reconciler) UpdateDevice(id DeviceID, name string, connected, paired bool) {
	d, ok := r.devices[id]
	if !ok {
		return
	}
	changed := d.name != name || d.connected != connected || d.paired != paired
	d.name = name
	d.connected = connected
	d.paired = paired
	if changed {
		r.publish()
	}
}

// ToggleConnection drives the per-device state machine:
//
//	Disconnected -> start a cancellable async connect (Connecting)
//	Connecting   -> cancel the in-flight connect
//	Connected    -> async disconnect, with no interim Connecting state
func (r *Reconciler) ToggleConnection(id DeviceID) {
	d, ok := r.devices[id]
	if !ok {
		return
	}
	switch d.State() {
	case StateDisconnected:
		r.startConnect(d)
	case StateConnecting:
		d.cancelConnect()
	case StateConnected:
		r.startDisconnect(d)
	}
}

func (r *Reconciler) startConnect(d *Device) {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancelConnect = cancel
	r.publish()

	id := d.id
	ctrl := r.ctrl
	go func() {
		err := ctrl.Connect(ctx, id)
		r.loop.Post(func() { r.finishConnect(id, err) })
	}()
}

// finishConnect is the completion callback of a connect operation. It
// always tears down cancellation state and re-derives the device state
// from the reported link flag; cancellation may not have been honored
// instantly by the lower layer.
func (r *Reconciler) finishConnect(id DeviceID, err error) {
	d, ok := r.devices[id]
	if !ok {
		return
	}
	if d.cancelConnect != nil {
		d.cancelConnect()
		d.cancelConnect = nil
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		// A failed connect resolves to Disconnected, never a stuck
		// Connecting.
		logging.Warn("Bluetooth connect failed",
			zap.String("device", string(id)), zap.Error(err))
	}
	r.publish()
}

func (r *Reconciler) startDisconnect(d *Device) {
	id := d.id
	ctrl := r.ctrl
	go func() {
		err := ctrl.Disconnect(context.Background(), id)
		r.loop.Post(func() {
			if err != nil {
				logging.Warn("Bluetooth disconnect failed",
					zap.String("device", string(id)), zap.Error(err))
			}
			// The connected flag clears through the property stream;
			// nothing to re-derive here beyond logging.
		})
	}()
}

// SetScanning starts or stops discovery on the default adapter.
// Starting sets the discoverable hint before discovery; stopping is
// always explicit, there is no auto-timeout.
func (r *Reconciler) SetScanning(scanning bool) {
	if r.scanning == scanning {
		return
	}
	adapter := r.DefaultAdapter()
	if adapter == "" {
		return
	}
	r.scanning = scanning
	if scanning {
		if err := r.ctrl.SetDiscoverable(adapter, true); err != nil {
			logging.Warn("Failed to set discoverable", zap.Error(err))
		}
		if err := r.ctrl.StartDiscovery(adapter); err != nil {
			logging.Warn("Failed to start discovery", zap.Error(err))
			r.scanning = false
			return
		}
	} else {
		if err := r.ctrl.StopDiscovery(adapter); err != nil {
			logging.Warn("Failed to stop discovery", zap.Error(err))
		}
		if err := r.ctrl.SetDiscoverable(adapter, false); err != nil {
			logging.Warn("Failed to clear discoverable", zap.Error(err))
		}
	}
	r.ScanningChanged.Emit(r.scanning)
}

// SetPowered asks the backend to power the default adapter on or off.
// Powering off forces scanning off first.
func (r *Reconciler) SetPowered(powered bool) {
	adapter := r.DefaultAdapter()
	if adapter == "" {
		return
	}
	if !powered {
		r.SetScanning(false)
	}
	ctrl := r.ctrl
	go func() {
		if err := ctrl.SetPowered(context.Background(), adapter, powered); err != nil {
			r.loop.Post(func() {
				logging.Warn("Failed to set adapter power",
					zap.Bool("powered", powered), zap.Error(err))
			})
		}
	}()
}

func (r *Reconciler) publish() {
	r.DevicesChanged.Emit(r.Devices())
}
