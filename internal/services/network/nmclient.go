package network

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/logging"
)

const (
	nmService   = "org.freedesktop.NetworkManager"
	nmPath      = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmIface     = "org.freedesktop.NetworkManager"
	deviceIface = "org.freedesktop.NetworkManager.Device"
	wifiIface   = "org.freedesktop.NetworkManager.Device.Wireless"
	apIface     = "org.freedesktop.NetworkManager.AccessPoint"
	propsIface  = "org.freedesktop.DBus.Properties"

	deviceTypeEthernet uint32 = 1
	deviceTypeWifi     uint32 = 2

	// NMDeviceState values of interest.
	deviceStateDisconnected uint32 = 30
	deviceStateActivated    uint32 = 100
)

// Client feeds NetworkManager's D-Bus event stream into the Wifi and
// Wired reconcilers. It is the concrete Controller used in production;
// the reconcilers themselves never touch the bus.
type Client struct {
	conn *dbus.Conn
	loop *eventloop.Loop

	wifi  *Wifi
	wired *Wired

	wifiDev  dbus.ObjectPath
	wiredDev dbus.ObjectPath

	signals chan *dbus.Signal
	done    chan struct{}
}

// Connect opens the system bus, locates the first wired and wifi
// devices, snapshots their current state, and starts translating
// signals. A connection failure leaves networking unavailable for the
// session; callers log and continue without it.
func Connect(loop *eventloop.Loop) (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	c := &Client{
		conn:    conn,
		loop:    loop,
		wired:   NewWired(),
		signals: make(chan *dbus.Signal, 64),
		done:    make(chan struct{}),
	}
	c.wifi = NewWifi(loop, c)

	if err := c.discoverDevices(); err != nil {
		conn.Close()
		return nil, err
	}

	if call := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0,
		"type='signal',sender='"+nmService+"'"); call.Err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to match NetworkManager signals: %w", call.Err)
	}
	conn.Signal(c.signals)
	go c.dispatch()

	c.snapshot()
	return c, nil
}

// Wifi returns the wifi reconciler (nil when no wifi device exists).
func (c *Client) Wifi() *Wifi {
	if c.wifiDev == "" {
		return nil
	}
	return c.wifi
}

// Wired returns the wired reconciler (nil when no wired device exists).
func (c *Client) Wired() *Wired {
	if c.wiredDev == "" {
		return nil
	}
	return c.wired
}

// Close stops signal dispatch and drops the bus connection.
func (c *Client) Close() error {
	close(c.done)
	c.conn.RemoveSignal(c.signals)
	return c.conn.Close()
}

func (c *Client) discoverDevices() error {
	var devices []dbus.ObjectPath
	nm := c.conn.Object(nmService, nmPath)
	if err := nm.Call(nmIface+".GetDevices", 0).Store(&devices); err != nil {
		return fmt.Errorf("failed to enumerate devices: %w", err)
	}
	for _, path := range devices {
		var devType uint32
		if err := c.getProp(path, deviceIface, "DeviceType", &devType); err != nil {
			continue
		}
		switch devType {
		case deviceTypeEthernet:
			if c.wiredDev == "" {
				c.wiredDev = path
			}
		case deviceTypeWifi:
			if c.wifiDev == "" {
				c.wifiDev = path
			}
		}
	}
	return nil
}

// snapshot seeds the reconcilers with the current AP list, association,
// enablement, and state before any signal arrives.
func (c *Client) snapshot() {
	if c.wifiDev != "" {
		var aps []dbus.ObjectPath
		if err := c.getProp(c.wifiDev, wifiIface, "AccessPoints", &aps); err == nil {
			for _, ap := range aps {
				c.pushAccessPoint(ap, false)
			}
		}
		var active dbus.ObjectPath
		if err := c.getProp(c.wifiDev, wifiIface, "ActiveAccessPoint", &active); err == nil {
			id := apIDFromPath(active)
			c.loop.Post(func() { c.wifi.SetActiveAccessPoint(id) })
		}
		var enabled bool
		if err := c.getProp(nmPath, nmIface, "WirelessEnabled", &enabled); err == nil {
			c.loop.Post(func() { c.wifi.SetEnabledReported(enabled) })
		}
		c.pushDeviceState(c.wifiDev)
	}
	if c.wiredDev != "" {
		c.pushDeviceState(c.wiredDev)
	}
}

func (c *Client) dispatch() {
	for {
		select {
		case <-c.done:
			return
		case sig, ok := <-c.signals:
			if !ok {
				return
			}
			c.handleSignal(sig)
		}
	}
}

func (c *Client) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case wifiIface + ".AccessPointAdded":
		if path, ok := signalPath(sig); ok {
			c.pushAccessPoint(path, false)
		}
	case wifiIface + ".AccessPointRemoved":
		if path, ok := signalPath(sig); ok {
			id := apIDFromPath(path)
			c.loop.Post(func() { c.wifi.RemoveAccessPoint(id) })
		}
	case deviceIface + ".StateChanged":
		dev := sig.Path
		if dev == c.wifiDev || dev == c.wiredDev {
			c.pushDeviceState(dev)
		}
	case propsIface + ".PropertiesChanged":
		c.handlePropertiesChanged(sig)
	}
}

func (c *Client) handlePropertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}
	iface, _ := sig.Body[0].(string)
	changed, _ := sig.Body[1].(map[string]dbus.Variant)

	switch iface {
	case apIface:
		// Re-read both properties: a strength-only change still needs
		// the SSID to address the owning network.
		c.pushAccessPoint(sig.Path, true)
	case wifiIface:
		if v, ok := changed["ActiveAccessPoint"]; ok {
			if path, ok := v.Value().(dbus.ObjectPath); ok {
				id := apIDFromPath(path)
				c.loop.Post(func() { c.wifi.SetActiveAccessPoint(id) })
			}
		}
	case nmIface:
		if v, ok := changed["WirelessEnabled"]; ok {
			if enabled, ok := v.Value().(bool); ok {
				c.loop.Post(func() { c.wifi.SetEnabledReported(enabled) })
			}
		}
	}
}

// pushAccessPoint reads an AP's SSID and strength and feeds them to the
// reconciler as an add or update.
func (c *Client) pushAccessPoint(path dbus.ObjectPath, update bool) {
	var ssid []byte
	var strength uint8
	if err := c.getProp(path, apIface, "Ssid", &ssid); err != nil {
		logging.Debug("Failed to read AP SSID", zap.String("path", string(path)), zap.Error(err))
		return
	}
	if err := c.getProp(path, apIface, "Strength", &strength); err != nil {
		return
	}
	id := apIDFromPath(path)
	c.loop.Post(func() {
		if update {
			c.wifi.UpdateAccessPoint(id, ssid, strength)
		} else {
			c.wifi.AddAccessPoint(id, ssid, strength)
		}
	})
}

// pushDeviceState maps the device state to an activation state, probes
// connectivity when activated, and feeds the pair to the reconciler.
func (c *Client) pushDeviceState(dev dbus.ObjectPath) {
	var state uint32
	if err := c.getProp(dev, deviceIface, "State", &state); err != nil {
		return
	}
	activation := activationFromDeviceState(state)

	connectivity := ConnectivityUnknown
	if activation == ActivationActivated {
		var raw uint32
		nm := c.conn.Object(nmService, nmPath)
		if err := nm.Call(nmIface+".CheckConnectivity", 0).Store(&raw); err == nil {
			connectivity = Connectivity(raw)
		}
	}

	c.loop.Post(func() {
		if dev == c.wifiDev {
			c.wifi.SetActivation(activation, connectivity)
		} else {
			c.wired.SetActivation(activation, connectivity)
		}
	})
}

func activationFromDeviceState(state uint32) ActivationState {
	switch {
	case state == deviceStateActivated:
		return ActivationActivated
	case state > deviceStateDisconnected && state < deviceStateActivated:
		return ActivationActivating
	default:
		return ActivationDeactivated
	}
}

// SetWirelessEnabled implements Controller.
func (c *Client) SetWirelessEnabled(_ context.Context, enabled bool) error {
	nm := c.conn.Object(nmService, nmPath)
	return nm.Call(propsIface+".Set", 0, nmIface, "WirelessEnabled", dbus.MakeVariant(enabled)).Err
}

// RequestScan implements Controller.
func (c *Client) RequestScan(_ context.Context) error {
	if c.wifiDev == "" {
		return fmt.Errorf("no wifi device")
	}
	dev := c.conn.Object(nmService, c.wifiDev)
	return dev.Call(wifiIface+".RequestScan", 0, map[string]dbus.Variant{}).Err
}

func (c *Client) getProp(path dbus.ObjectPath, iface, prop string, dst any) error {
	obj := c.conn.Object(nmService, path)
	return obj.Call(propsIface+".Get", 0, iface, prop).Store(dst)
}

func signalPath(sig *dbus.Signal) (dbus.ObjectPath, bool) {
	if len(sig.Body) == 0 {
		return "", false
	}
	path, ok := sig.Body[0].(dbus.ObjectPath)
	return path, ok
}

func apIDFromPath(path dbus.ObjectPath) APID {
	if path == "" || path == "/" {
		return ""
	}
	return APID(path)
}
