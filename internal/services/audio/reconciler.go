package audio

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/logging"
	"github.com/lumenshell/lumen/internal/observe"
)

// Mixer is the mutating half of the external audio API.
type Mixer interface {
	SetVolume(ctx context.Context, id StreamID, raw uint32) error
	SetDefault(ctx context.Context, id StreamID, kind DeviceKind) error
}

// Reconciler mirrors the mixer-control stream into a device collection
// and maintains the two permanent default proxies. All methods must be
// called on the event loop.
type Reconciler struct {
	loop    *eventloop.Loop
	mixer   Mixer
	maxNorm uint32

	streams map[StreamID]*stream
	devices map[StreamID]*Device

	defaultOutput *Device
	defaultInput  *Device

	// DevicesChanged fires with the full device list after membership or
	// default changes.
	DevicesChanged observe.Signal[[]*Device]
}

// New creates a reconciler driving mixer. maxNorm is the mixer's raw
// volume value that maps to 100%.
func New(loop *eventloop.Loop, mixer Mixer, maxNorm uint32) *Reconciler {
	r := &Reconciler{
		loop:    loop,
		mixer:   mixer,
		maxNorm: maxNorm,
		streams: make(map[StreamID]*stream),
		devices: make(map[StreamID]*Device),
	}
	r.defaultOutput = &Device{r: r, proxy: true, kind: DeviceOutput}
	r.defaultInput = &Device{r: r, proxy: true, kind: DeviceInput}
	return r
}

// DefaultOutput returns the permanent default-output proxy.
func (r *Reconciler) DefaultOutput() *Device { return r.defaultOutput }

// DefaultInput returns the permanent default-input proxy.
func (r *Reconciler) DefaultInput() *Device { return r.defaultInput }

// Devices returns the real devices of one kind, default first, then by
// description.
func (r *Reconciler) Devices(kind DeviceKind) []*Device {
	out := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		if d.kind == kind {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsDefault() != b.IsDefault() {
			return a.IsDefault()
		}
		return a.Description() < b.Description()
	})
	return out
}

// AddStream feeds a stream-registered event. The stream is classified
// input or output here and never reclassified. The first stream of a
// kind backs that kind's proxy until a default-changed event says
// otherwise.
func (r *Reconciler) AddStream(id StreamID, kind DeviceKind, name, description string, raw uint32) {
	if _, exists := r.streams[id]; exists {
		r.UpdateStreamDescription(id, description)
		r.UpdateStreamVolume(id, raw)
		return
	}
	s := &stream{id: id, kind: kind, name: name, description: description, raw: raw}
	r.streams[id] = s
	r.devices[id] = &Device{r: r, kind: kind, backing: s}
	if r.proxyFor(kind).backing == nil {
		r.retarget(kind, s)
	}
	r.publish()
}

// RemoveStream feeds a stream-removed event. Removing the default
// leaves the proxy without a backing stream until the next
// default-changed event.
func (r *Reconciler) RemoveStream(id StreamID) {
	s, ok := r.streams[id]
	if !ok {
		return
	}
	delete(r.streams, id)
	delete(r.devices, id)
	if p := r.proxyFor(s.kind); p.backing == s {
		r.retarget(s.kind, nil)
	}
	r.publish()
}

// SetDefaultStream feeds a default-changed event, retargeting the
// matching proxy onto the stream's kind.
func (r *Reconciler) SetDefaultStream(id StreamID) {
	s, ok := r.streams[id]
	if !ok {
		return
	}
	if r.proxyFor(s.kind).backing == s {
		return
	}
	r.retarget(s.kind, s)
	r.publish()
}

// UpdateStreamVolume feeds a per-stream volume event.
func (r *Reconciler) UpdateStreamVolume(id StreamID, raw uint32) {
	s, ok := r.streams[id]
	if !ok || s.raw == raw {
		return
	}
	s.raw = raw
	r.emitFor(s)
}

// UpdateStreamDescription feeds a per-stream description event.
func (r *Reconciler) UpdateStreamDescription(id StreamID, description string) {
	s, ok := r.streams[id]
	if !ok || s.description == description {
		return
	}
	s.description = description
	r.emitFor(s)
}

func (r *Reconciler) proxyFor(kind DeviceKind) *Device {
	if kind == DeviceInput {
		return r.defaultInput
	}
	return r.defaultOutput
}

func (r *Reconciler) defaultID(kind DeviceKind) StreamID {
	p := r.proxyFor(kind)
	if p.backing == nil {
		return 0
	}
	return p.backing.id
}

// retarget swaps a proxy's backing stream and re-emits every derived
// property through its Changed signal. The proxy object itself never
// changes.
func (r *Reconciler) retarget(kind DeviceKind, s *stream) {
	p := r.proxyFor(kind)
	p.backing = s
	p.Changed.Emit(p)
}

// emitFor fires Changed on the real device and, when the stream backs a
// proxy, on the proxy too.
func (r *Reconciler) emitFor(s *stream) {
	if d, ok := r.devices[s.id]; ok {
		d.Changed.Emit(d)
	}
	if p := r.proxyFor(s.kind); p.backing == s {
		p.Changed.Emit(p)
	}
}

func (r *Reconciler) setVolume(s *stream, raw uint32) {
	if s.raw != raw {
		s.raw = raw
		r.emitFor(s)
	}
	id := s.id
	mixer := r.mixer
	go func() {
		if err := mixer.SetVolume(context.Background(), id, raw); err != nil {
			r.loop.Post(func() {
				logging.Warn("Failed to set volume",
					zap.Uint32("stream", uint32(id)), zap.Error(err))
			})
		}
	}()
}

func (r *Reconciler) setDefault(s *stream) {
	id := s.id
	kind := s.kind
	mixer := r.mixer
	go func() {
		if err := mixer.SetDefault(context.Background(), id, kind); err != nil {
			r.loop.Post(func() {
				logging.Warn("Failed to set default device",
					zap.Uint32("stream", uint32(id)), zap.Error(err))
			})
		}
	}()
}

func (r *Reconciler) volumePercent(raw uint32) int {
	pct := int(math.Round(float64(raw) / float64(r.maxNorm) * 100))
	return min(max(pct, 0), 100)
}

func (r *Reconciler) publish() {
	all := make([]*Device, 0, len(r.devices))
	all = append(all, r.Devices(DeviceOutput)...)
	all = append(all, r.Devices(DeviceInput)...)
	r.DevicesChanged.Emit(all)
}
