package audio

import (
	"math"

	"github.com/lumenshell/lumen/internal/observe"
)

// DeviceKind classifies a mixer stream at registration time.
type DeviceKind int

const (
	DeviceOutput DeviceKind = iota
	DeviceInput
)

func (k DeviceKind) String() string {
	if k == DeviceInput {
		return "input"
	}
	return "output"
}

// StreamID identifies a stream in the external mixer-control stream.
type StreamID uint32

// UnmuteVolume is the percentage restored when unmuting a device whose
// volume is zero. The previous volume is not remembered.
const UnmuteVolume = 25

// stream is the raw mixer-side state of one device.
type stream struct {
	id          StreamID
	kind        DeviceKind
	name        string
	description string
	raw         uint32
}

// Device is either a real device backed by one mixer stream, or one of
// the two permanent default proxies whose backing stream is swapped by
// the reconciler when the system default changes. Consumers holding a
// default proxy never need to re-fetch it.
type Device struct {
	r     *Reconciler
	proxy bool
	kind  DeviceKind

	// backing is fixed for a real device and retargeted for a proxy;
	// nil on a proxy with no stream of its kind present.
	backing *stream

	// Changed fires after any derived property of this device may have
	// changed, including a proxy retarget.
	Changed observe.Signal[*Device]
}

// Kind returns the device classification.
func (d *Device) Kind() DeviceKind { return d.kind }

// Name returns the mixer stream name, or "" when a proxy has no
// backing stream.
func (d *Device) Name() string {
	if d.backing == nil {
		return ""
	}
	return d.backing.name
}

// Description returns the human-readable device description.
func (d *Device) Description() string {
	if d.backing == nil {
		return ""
	}
	return d.backing.description
}

// Volume returns the volume as a percentage of the mixer's norm level,
// rounded and clamped to 0-100.
func (d *Device) Volume() int {
	if d.backing == nil {
		return 0
	}
	return d.r.volumePercent(d.backing.raw)
}

// Muted reports whether the volume is zero. Mute is not an independent
// flag.
func (d *Device) Muted() bool {
	return d.Volume() == 0
}

// IsDefault reports whether this device is the current default of its
// kind. Always true for the proxies.
func (d *Device) IsDefault() bool {
	if d.proxy {
		return true
	}
	if d.backing == nil {
		return false
	}
	return d.r.defaultID(d.kind) == d.backing.id
}

// SetVolume sets the volume percentage, clamped to 0-100. The local
// state updates immediately; the mixer write happens asynchronously and
// the external event stream confirms it.
func (d *Device) SetVolume(percent int) {
	if d.backing == nil {
		return
	}
	percent = min(max(percent, 0), 100)
	raw := uint32(math.Round(float64(percent) / 100 * float64(d.r.maxNorm)))
	d.r.setVolume(d.backing, raw)
}

// SetMuted drives the volume-based mute model: muting a nonzero device
// drops it to zero, and unmuting a zero device restores UnmuteVolume.
// Anything else is a no-op.
func (d *Device) SetMuted(muted bool) {
	switch {
	case muted && !d.Muted():
		d.SetVolume(0)
	case !muted && d.Muted():
		d.SetVolume(UnmuteVolume)
	}
}

// MakeDefault asks the mixer to flag this device as the default of its
// kind. Meaningless on a proxy.
func (d *Device) MakeDefault() {
	if d.proxy || d.backing == nil {
		return
	}
	d.r.setDefault(d.backing)
}
