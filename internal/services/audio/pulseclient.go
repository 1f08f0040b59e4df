package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/lumenshell/lumen/internal/eventloop"
)

const (
	pulseLookupPath  = dbus.ObjectPath("/org/pulseaudio/server_lookup1")
	pulseLookupIface = "org.PulseAudio.ServerLookup1"
	pulseCorePath    = dbus.ObjectPath("/org/pulseaudio/core1")
	pulseCoreIface   = "org.PulseAudio.Core1"
	pulseDeviceIface = "org.PulseAudio.Core1.Device"
	pulsePropsIface  = "org.freedesktop.DBus.Properties"

	// pulseVolumeNorm is the raw volume that maps to 100%.
	pulseVolumeNorm = 0x10000
)

// Pulse is the PulseAudio mixer backend. It speaks the PulseAudio D-Bus
// protocol over a peer connection whose address is published on the
// session bus, and feeds device events into the reconciler.
type Pulse struct {
	conn *dbus.Conn
	loop *eventloop.Loop
	rec  *Reconciler
	core dbus.BusObject

	mu    sync.Mutex
	paths map[StreamID]dbus.ObjectPath
	ids   map[dbus.ObjectPath]StreamID

	signals chan *dbus.Signal
	done    chan struct{}
}

// ConnectPulse locates the PulseAudio peer socket through the session
// bus, connects, snapshots the device set, and starts translating
// signals. A failure leaves audio unavailable for the session.
func ConnectPulse(loop *eventloop.Loop) (*Pulse, error) {
	addr, err := pulseAddress()
	if err != nil {
		return nil, err
	}

	conn, err := dbus.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial PulseAudio at %s: %w", addr, err)
	}
	if err := conn.Auth(nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to authenticate with PulseAudio: %w", err)
	}

	p := &Pulse{
		conn:    conn,
		loop:    loop,
		core:    conn.Object(pulseCoreIface, pulseCorePath),
		paths:   make(map[StreamID]dbus.ObjectPath),
		ids:     make(map[dbus.ObjectPath]StreamID),
		signals: make(chan *dbus.Signal, 64),
		done:    make(chan struct{}),
	}
	p.rec = New(loop, p, pulseVolumeNorm)

	for _, name := range []string{
		pulseCoreIface + ".NewSink",
		pulseCoreIface + ".SinkRemoved",
		pulseCoreIface + ".NewSource",
		pulseCoreIface + ".SourceRemoved",
		pulseCoreIface + ".FallbackSinkUpdated",
		pulseCoreIface + ".FallbackSourceUpdated",
		pulseDeviceIface + ".VolumeUpdated",
		pulseDeviceIface + ".PropertyListUpdated",
	} {
		if call := p.core.Call(pulseCoreIface+".ListenForSignal", 0, name, []dbus.ObjectPath{}); call.Err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", name, call.Err)
		}
	}
	conn.Signal(p.signals)
	go p.dispatch()

	if err := p.snapshot(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// pulseAddress reads the peer socket address published by the daemon on
// the session bus.
func pulseAddress() (string, error) {
	session, err := dbus.ConnectSessionBus()
	if err != nil {
		return "", fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer session.Close()

	obj := session.Object("org.PulseAudio1", pulseLookupPath)
	var addr string
	if err := obj.Call(pulsePropsIface+".Get", 0, pulseLookupIface, "Address").Store(&addr); err != nil {
		return "", fmt.Errorf("failed to look up PulseAudio address: %w", err)
	}
	return addr, nil
}

// Reconciler returns the device reconciler fed by this backend.
func (p *Pulse) Reconciler() *Reconciler {
	return p.rec
}

// Close stops signal dispatch and drops the peer connection.
func (p *Pulse) Close() error {
	close(p.done)
	p.conn.RemoveSignal(p.signals)
	return p.conn.Close()
}

func (p *Pulse) snapshot() error {
	for _, src := range []struct {
		prop string
		kind DeviceKind
	}{
		{"Sinks", DeviceOutput},
		{"Sources", DeviceInput},
	} {
		var devicePaths []dbus.ObjectPath
		if err := p.getCoreProp(src.prop, &devicePaths); err != nil {
			return fmt.Errorf("failed to list %s: %w", src.prop, err)
		}
		for _, path := range devicePaths {
			p.pushDevice(path, src.kind)
		}
	}

	for _, fb := range []string{"FallbackSink", "FallbackSource"} {
		var path dbus.ObjectPath
		if err := p.getCoreProp(fb, &path); err != nil {
			// No fallback configured; the first stream backs the proxy.
			continue
		}
		p.pushDefault(path)
	}
	return nil
}

func (p *Pulse) dispatch() {
	for {
		select {
		case <-p.done:
			return
		case sig, ok := <-p.signals:
			if !ok {
				return
			}
			p.handleSignal(sig)
		}
	}
}

func (p *Pulse) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case pulseCoreIface + ".NewSink":
		if path, ok := signalPath(sig); ok {
			p.pushDevice(path, DeviceOutput)
		}
	case pulseCoreIface + ".NewSource":
		if path, ok := signalPath(sig); ok {
			p.pushDevice(path, DeviceInput)
		}
	case pulseCoreIface + ".SinkRemoved", pulseCoreIface + ".SourceRemoved":
		if path, ok := signalPath(sig); ok {
			if id, known := p.forget(path); known {
				p.loop.Post(func() { p.rec.RemoveStream(id) })
			}
		}
	case pulseCoreIface + ".FallbackSinkUpdated", pulseCoreIface + ".FallbackSourceUpdated":
		if path, ok := signalPath(sig); ok {
			p.pushDefault(path)
		}
	case pulseDeviceIface + ".VolumeUpdated":
		if len(sig.Body) < 1 {
			return
		}
		channels, _ := sig.Body[0].([]uint32)
		if id, known := p.idFor(sig.Path); known {
			raw := maxChannel(channels)
			p.loop.Post(func() { p.rec.UpdateStreamVolume(id, raw) })
		}
	case pulseDeviceIface + ".PropertyListUpdated":
		if len(sig.Body) < 1 {
			return
		}
		props, _ := sig.Body[0].(map[string][]byte)
		if id, known := p.idFor(sig.Path); known {
			desc := propertyString(props, "device.description")
			p.loop.Post(func() { p.rec.UpdateStreamDescription(id, desc) })
		}
	}
}

// pushDevice reads one device object and feeds it as a registration.
func (p *Pulse) pushDevice(path dbus.ObjectPath, kind DeviceKind) {
	obj := p.conn.Object(pulseCoreIface, path)

	var index uint32
	if err := obj.Call(pulsePropsIface+".Get", 0, pulseDeviceIface, "Index").Store(&index); err != nil {
		return
	}
	var name string
	_ = obj.Call(pulsePropsIface+".Get", 0, pulseDeviceIface, "Name").Store(&name)
	var channels []uint32
	_ = obj.Call(pulsePropsIface+".Get", 0, pulseDeviceIface, "Volume").Store(&channels)
	var props map[string][]byte
	_ = obj.Call(pulsePropsIface+".Get", 0, pulseDeviceIface, "PropertyList").Store(&props)

	id := StreamID(index)
	p.mu.Lock()
	p.paths[id] = path
	p.ids[path] = id
	p.mu.Unlock()

	desc := propertyString(props, "device.description")
	raw := maxChannel(channels)
	p.loop.Post(func() { p.rec.AddStream(id, kind, name, desc, raw) })
}

func (p *Pulse) pushDefault(path dbus.ObjectPath) {
	if id, known := p.idFor(path); known {
		p.loop.Post(func() { p.rec.SetDefaultStream(id) })
	}
}

func (p *Pulse) idFor(path dbus.ObjectPath) (StreamID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.ids[path]
	return id, ok
}

func (p *Pulse) pathFor(id StreamID) (dbus.ObjectPath, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	path, ok := p.paths[id]
	return path, ok
}

func (p *Pulse) forget(path dbus.ObjectPath) (StreamID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.ids[path]
	if ok {
		delete(p.ids, path)
		delete(p.paths, id)
	}
	return id, ok
}

// SetVolume implements Mixer. The raw value is applied to every channel
// of the device.
func (p *Pulse) SetVolume(ctx context.Context, id StreamID, raw uint32) error {
	path, ok := p.pathFor(id)
	if !ok {
		return fmt.Errorf("unknown stream %d", id)
	}
	obj := p.conn.Object(pulseCoreIface, path)

	var channels []uint32
	if err := obj.CallWithContext(ctx, pulsePropsIface+".Get", 0, pulseDeviceIface, "Volume").Store(&channels); err != nil {
		return fmt.Errorf("failed to read channel map: %w", err)
	}
	for i := range channels {
		channels[i] = raw
	}
	return obj.CallWithContext(ctx, pulsePropsIface+".Set", 0,
		pulseDeviceIface, "Volume", dbus.MakeVariant(channels)).Err
}

// SetDefault implements Mixer by rewriting the daemon's fallback device.
func (p *Pulse) SetDefault(ctx context.Context, id StreamID, kind DeviceKind) error {
	path, ok := p.pathFor(id)
	if !ok {
		return fmt.Errorf("unknown stream %d", id)
	}
	prop := "FallbackSink"
	if kind == DeviceInput {
		prop = "FallbackSource"
	}
	return p.core.CallWithContext(ctx, pulsePropsIface+".Set", 0,
		pulseCoreIface, prop, dbus.MakeVariant(path)).Err
}

func (p *Pulse) getCoreProp(prop string, dst any) error {
	return p.core.Call(pulsePropsIface+".Get", 0, pulseCoreIface, prop).Store(dst)
}

func signalPath(sig *dbus.Signal) (dbus.ObjectPath, bool) {
	if len(sig.Body) < 1 {
		return "", false
	}
	path, ok := sig.Body[0].(dbus.ObjectPath)
	return path, ok
}

func maxChannel(channels []uint32) uint32 {
	var out uint32
	for _, c := range channels {
		if c > out {
			out = c
		}
	}
	return out
}

// propertyString decodes a NUL-terminated property-list value.
func propertyString(props map[string][]byte, key string) string {
	return string(bytes.TrimRight(props[key], "\x00"))
}
