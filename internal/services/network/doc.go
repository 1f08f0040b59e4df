// Package network reconciles the NetworkManager event stream into
// logical Wi-Fi networks and adapter connectivity state.
//
// # Grouping
//
// Multiple access points broadcasting the same SSID byte string are
// merged into one Network; an AP without an SSID forms a single-member
// anonymous network. A network's strength is the maximum over its
// members, recomputed whenever membership or a member's strength
// changes, and a network disappears from the visible list when its last
// contributing AP is removed. An AP whose SSID changes is treated as
// removed from its old network and added to the new one.
//
// # Active Network and State
//
// The active network is derived from the adapter's associated access
// point through an AP-to-network index and re-pushed to subscribers on
// every input change; subscribers must not assume an active network
// exists. The adapter state machine combines connection activation
// state with the IPv4 connectivity probe: activated with full
// connectivity is Connected, activated otherwise is Limited, activating
// is Connecting, anything else is Disconnected.
//
// Reconciler state is confined to the event loop; the D-Bus client
// translates bus signals into posted reconciler calls.
package network
