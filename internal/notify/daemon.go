package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/version"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = dbus.ObjectPath("/org/freedesktop/Notifications")
	iface      = "org.freedesktop.Notifications"
)

// Daemon exports the freedesktop notification server interface on the
// session bus and feeds client calls into the store.
type Daemon struct {
	conn  *dbus.Conn
	loop  *eventloop.Loop
	store *Store
}

// StartDaemon claims the well-known notification name and exports the
// server. When another daemon already owns the name, the returned error
// names the conflicting owner; the caller keeps running without the
// daemon role.
func StartDaemon(loop *eventloop.Loop, store *Store) (*Daemon, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	d := &Daemon{conn: conn, loop: loop, store: store}
	if err := conn.Export(d, objectPath, iface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to export notification server: %w", err)
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to request %s: %w", busName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		owner := "unknown"
		_ = conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, busName).Store(&owner)
		conn.Close()
		return nil, fmt.Errorf("%s is already owned by %s", busName, owner)
	}

	// Relay store events back to clients.
	loop.Post(func() {
		store.Closed.Subscribe(func(e ClosedEvent) {
			d.conn.Emit(objectPath, iface+".NotificationClosed", e.ID, uint32(e.Reason))
		})
		store.ActionInvoked.Subscribe(func(e ActionEvent) {
			d.conn.Emit(objectPath, iface+".ActionInvoked", e.ID, e.ActionID)
		})
	})
	return d, nil
}

// Close releases the well-known name and the bus connection.
func (d *Daemon) Close() error {
	d.conn.ReleaseName(busName)
	return d.conn.Close()
}

// Notify implements org.freedesktop.Notifications.Notify.
func (d *Daemon) Notify(appName string, replacesID uint32, appIcon, summary, body string, actions []string, hints map[string]dbus.Variant, expire int32) (uint32, *dbus.Error) {
	decoded := make(map[string]any, len(hints))
	for k, v := range hints {
		decoded[k] = v.Value()
	}
	if appIcon != "" {
		if _, has := decoded["image-path"]; !has {
			decoded["image-path"] = appIcon
		}
	}

	id := make(chan uint32, 1)
	d.loop.Post(func() {
		id <- d.store.Notify(appName, replacesID, summary, body, actions, decoded, int(expire))
	})
	return <-id, nil
}

// CloseNotification implements org.freedesktop.Notifications.CloseNotification.
func (d *Daemon) CloseNotification(id uint32) *dbus.Error {
	d.loop.Post(func() { d.store.Close(id, ReasonClosed) })
	return nil
}

// GetCapabilities implements org.freedesktop.Notifications.GetCapabilities.
func (d *Daemon) GetCapabilities() ([]string, *dbus.Error) {
	return []string{"actions", "body", "body-markup", "icon-static", "persistence"}, nil
}

// GetServerInformation implements org.freedesktop.Notifications.GetServerInformation.
func (d *Daemon) GetServerInformation() (name, vendor, ver, specVersion string, err *dbus.Error) {
	return "lumen", "lumenshell", version.Version, "1.2", nil
}
