package bluetooth

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/lumenshell/lumen/internal/eventloop"
)

const (
	bluezService  = "org.bluez"
	adapterIface  = "org.bluez.Adapter1"
	deviceIface   = "org.bluez.Device1"
	objMgrIface   = "org.freedesktop.DBus.ObjectManager"
	propsIface    = "org.freedesktop.DBus.Properties"
	bluezRootPath = dbus.ObjectPath("/")
)

// Client feeds the BlueZ object-manager stream into the reconciler and
// implements its Controller over the system bus.
type Client struct {
	conn *dbus.Conn
	loop *eventloop.Loop
	rec  *Reconciler

	signals chan *dbus.Signal
	done    chan struct{}
}

// Connect opens the system bus, snapshots the managed object tree, and
// starts translating signals. A failure leaves bluetooth unavailable
// for the session.
func Connect(loop *eventloop.Loop) (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	c := &Client{
		conn:    conn,
		loop:    loop,
		signals: make(chan *dbus.Signal, 64),
		done:    make(chan struct{}),
	}
	c.rec = New(loop, c)

	if call := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0,
		"type='signal',sender='"+bluezService+"'"); call.Err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to match BlueZ signals: %w", call.Err)
	}
	conn.Signal(c.signals)
	go c.dispatch()

	if err := c.snapshot(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Reconciler returns the device reconciler fed by this client.
func (c *Client) Reconciler() *Reconciler {
	return c.rec
}

// Close stops signal dispatch and drops the bus connection.
func (c *Client) Close() error {
	close(c.done)
	c.conn.RemoveSignal(c.signals)
	return c.conn.Close()
}

func (c *Client) snapshot() error {
	om := c.conn.Object(bluezService, bluezRootPath)
	var managed map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := om.Call(objMgrIface+".GetManagedObjects", 0).Store(&managed); err != nil {
		return fmt.Errorf("failed to read managed objects: %w", err)
	}
	for path, ifaces := range managed {
		c.pushInterfaces(path, ifaces)
	}
	return nil
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
	case objMgrIface + ".InterfacesAdded":
		if len(sig.Body) < 2 {
			return
		}
		path, _ := sig.Body[0].(dbus.ObjectPath)
		ifaces, _ := sig.Body[1].(map[string]map[string]dbus.Variant)
		c.pushInterfaces(path, ifaces)

	case objMgrIface + ".InterfacesRemoved":
		if len(sig.Body) < 2 {
			return
		}
		path, _ := sig.Body[0].(dbus.ObjectPath)
		names, _ := sig.Body[1].([]string)
		for _, name := range names {
			switch name {
			case adapterIface:
				id := AdapterID(path)
				c.loop.Post(func() { c.rec.RemoveAdapter(id) })
			case deviceIface:
				id := DeviceID(path)
				c.loop.Post(func() { c.rec.RemoveDevice(id) })
			}
		}

	case propsIface + ".PropertiesChanged":
		if len(sig.Body) < 2 {
			return
		}
		iface, _ := sig.Body[0].(string)
		switch iface {
		case deviceIface:
			c.pushDevice(sig.Path)
		case adapterIface:
			if AdapterID(sig.Path) == c.rec.DefaultAdapter() {
				var powered bool
				if err := c.getProp(sig.Path, adapterIface, "Powered", &powered); err == nil {
					c.loop.Post(func() { c.rec.SetPoweredReported(powered) })
				}
			}
		}
	}
}

func (c *Client) pushInterfaces(path dbus.ObjectPath, ifaces map[string]map[string]dbus.Variant) {
	if props, ok := ifaces[adapterIface]; ok {
		id := AdapterID(path)
		powered := variantBool(props["Powered"])
		c.loop.Post(func() { c.rec.AddAdapter(id, powered) })
	}
	if props, ok := ifaces[deviceIface]; ok {
		id := DeviceID(path)
		adapter := AdapterID(variantPath(props["Adapter"]))
		name := variantString(props["Name"])
		if name == "" {
			name = variantString(props["Alias"])
		}
		address := variantString(props["Address"])
		connected := variantBool(props["Connected"])
		paired := variantBool(props["Paired"])
		c.loop.Post(func() { c.rec.AddDevice(id, adapter, name, address, connected, paired) })
	}
}

// pushDevice re-reads the mutable device properties and feeds them as
// an update.
func (c *Client) pushDevice(path dbus.ObjectPath) {
	var name string
	if err := c.getProp(path, deviceIface, "Alias", &name); err != nil {
		if err := c.getProp(path, deviceIface, "Name", &name); err != nil {
			name = ""
		}
	}
	var connected, paired bool
	if err := c.getProp(path, deviceIface, "Connected", &connected); err != nil {
		return
	}
	_ = c.getProp(path, deviceIface, "Paired", &paired)

	id := DeviceID(path)
	c.loop.Post(func() { c.rec.UpdateDevice(id, name, connected, paired) })
}

// Connect implements Controller.
func (c *Client) Connect(ctx context.Context, id DeviceID) error {
	obj := c.conn.Object(bluezService, dbus.ObjectPath(id))
	return obj.CallWithContext(ctx, deviceIface+".Connect", 0).Err
}

// Disconnect implements Controller.
func (c *Client) Disconnect(ctx context.Context, id DeviceID) error {
	obj := c.conn.Object(bluezService, dbus.ObjectPath(id))
	return obj.CallWithContext(ctx, deviceIface+".Disconnect", 0).Err
}

// SetPowered implements Controller.
func (c *Client) SetPowered(ctx context.Context, adapter AdapterID, powered bool) error {
	obj := c.conn.Object(bluezService, dbus.ObjectPath(adapter))
	return obj.CallWithContext(ctx, propsIface+".Set", 0,
		adapterIface, "Powered", dbus.MakeVariant(powered)).Err
}

// SetDiscoverable implements Controller. Intentionally synchronous: it
// is a short local property write issued right before discovery.
func (c *Client) SetDiscoverable(adapter AdapterID, discoverable bool) error {
	obj := c.conn.Object(bluezService, dbus.ObjectPath(adapter))
	return obj.Call(propsIface+".Set", 0,
		adapterIface, "Discoverable", dbus.MakeVariant(discoverable)).Err
}

// StartDiscovery implements Controller.
func (c *Client) StartDiscovery(adapter AdapterID) error {
	obj := c.conn.Object(bluezService, dbus.ObjectPath(adapter))
	return obj.Call(adapterIface+".StartDiscovery", 0).Err
}

// StopDiscovery implements Controller.
func (c *Client) StopDiscovery(adapter AdapterID) error {
	obj := c.conn.Object(bluezService, dbus.ObjectPath(adapter))
	return obj.Call(adapterIface+".StopDiscovery", 0).Err
}

func (c *Client) getProp(path dbus.ObjectPath, iface, prop string, dst any) error {
	obj := c.conn.Object(bluezService, path)
	return obj.Call(propsIface+".Get", 0, iface, prop).Store(dst)
}

func variantBool(v dbus.Variant) bool {
	b, _ := v.Value().(bool)
	return b
}

func variantString(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}

func variantPath(v dbus.Variant) dbus.ObjectPath {
	p, _ := v.Value().(dbus.ObjectPath)
	return p
}
