// Package bluetooth reconciles the BlueZ object-manager stream into a
// visible device list and drives per-device connect state machines.
//
// The first adapter registered by the backend is the default adapter;
// there is no multi-adapter support. A device is visible when it is
// owned by the default adapter and its name has resolved. Connecting is
// not a stored flag: a device reports Connecting exactly while a
// cancellable connect operation is in flight, and ToggleConnection on a
// Connecting device cancels that operation instead of issuing a second
// one. Disconnects carry no interim state; the device stays Connected
// until the backend reports the link down.
//
// Reconciler state is confined to the event loop; the BlueZ client
// translates bus signals into posted reconciler calls.
package bluetooth
