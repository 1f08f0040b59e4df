// Package audio reconciles the mixer-control stream into audio devices
// and exposes two permanent default proxies.
//
// The proxies for "default output" and "default input" never change
// identity: when the system default moves, the reconciler retargets the
// proxy's backing stream and re-emits its derived properties, so a
// consumer holding the proxy never re-fetches it. Volume is a 0-100
// percentage of the mixer's norm level, and mute is not an independent
// flag: a device is muted exactly when its volume is zero, and unmuting
// a zero-volume device restores a fixed 25%.
//
// Reconciler state is confined to the event loop; the PulseAudio
// backend translates peer-connection signals into posted reconciler
// calls.
package audio
