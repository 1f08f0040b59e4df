// Package battery mirrors the UPower display device into a published
// battery status. A failed startup connection leaves the service
// unavailable for the whole session; it is never retried.
package battery

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/observe"
)

const (
	upowerService = "org.freedesktop.UPower"
	displayPath   = dbus.ObjectPath("/org/freedesktop/UPower/devices/DisplayDevice")
	deviceIface   = "org.freedesktop.UPower.Device"
	propsIface    = "org.freedesktop.DBus.Properties"
)

// ChargeState mirrors the UPower device state enumeration.
type ChargeState uint32

const (
	StateUnknown ChargeState = iota
	StateCharging
	StateDischarging
	StateEmpty
	StateFull
)

func (s ChargeState) String() string {
	switch s {
	case StateCharging:
		return "charging"
	case StateDischarging:
		return "discharging"
	case StateEmpty:
		return "empty"
	case StateFull:
		return "full"
	}
	return "unknown"
}

// Status is one published battery reading.
type Status struct {
	Present     bool
	Percent     float64
	State       ChargeState
	TimeToEmpty time.Duration
	TimeToFull  time.Duration
}

// Battery publishes display-device readings from UPower.
type Battery struct {
	conn *dbus.Conn
	loop *eventloop.Loop

	status Status

	// Changed fires with the new status after any property update.
	Changed observe.Signal[Status]

	signals chan *dbus.Signal
	done    chan struct{}
}

// Connect opens the system bus, reads the initial display-device state,
// and starts tracking property changes.
func Connect(loop *eventloop.Loop) (*Battery, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	b := &Battery{
		conn:    conn,
		loop:    loop,
		signals: make(chan *dbus.Signal, 16),
		done:    make(chan struct{}),
	}

	var props map[string]dbus.Variant
	obj := conn.Object(upowerService, displayPath)
	if err := obj.Call(propsIface+".GetAll", 0, deviceIface).Store(&props); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read display device: %w", err)
	}
	b.status = statusFromProps(b.status, props)

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(displayPath),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to match UPower signals: %w", err)
	}
	conn.Signal(b.signals)
	go b.dispatch()
	return b, nil
}

// Status returns the last published reading.
func (b *Battery) Status() Status {
	return b.status
}

// Close stops signal dispatch and drops the bus connection.
func (b *Battery) Close() error {
	close(b.done)
	b.conn.RemoveSignal(b.signals)
	return b.conn.Close()
}

func (b *Battery) dispatch() {
	for {
		select {
		case <-b.done:
			return
		case sig, ok := <-b.signals:
			if !ok {
				return
			}
			if len(sig.Body) < 2 {
				continue
			}
			if iface, _ := sig.Body[0].(string); iface != deviceIface {
				continue
			}
			props, _ := sig.Body[1].(map[string]dbus.Variant)
			b.loop.Post(func() { b.apply(props) })
		}
	}
}

func (b *Battery) apply(props map[string]dbus.Variant) {
	next := statusFromProps(b.status, props)
	if next == b.status {
		return
	}
	b.status = next
	b.Changed.Emit(next)
}

// statusFromProps folds a (possibly partial) property set into prev.
func statusFromProps(prev Status, props map[string]dbus.Variant) Status {
	out := prev
	if v, ok := props["IsPresent"]; ok {
		out.Present, _ = v.Value().(bool)
	}
	if v, ok := props["Percentage"]; ok {
		out.Percent, _ = v.Value().(float64)
	}
	if v, ok := props["State"]; ok {
		if raw, isU32 := v.Value().(uint32); isU32 {
			out.State = ChargeState(raw)
		}
	}
	if v, ok := props["TimeToEmpty"]; ok {
		if secs, isI64 := v.Value().(int64); isI64 {
			out.TimeToEmpty = time.Duration(secs) * time.Second
		}
	}
	if v, ok := props["TimeToFull"]; ok {
		if secs, isI64 := v.Value().(int64); isI64 {
			out.TimeToFull = time.Duration(secs) * time.Second
		}
	}
	return out
}
