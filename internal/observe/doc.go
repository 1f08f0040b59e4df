// Package observe provides the subscription primitive used by every
// reconciler and by the configuration watcher to publish state changes
// to the UI layer.
//
// A Signal dispatches synchronously within the event-loop turn that
// performs the triggering mutation, so a subscriber always observes
// collections and derived state that are consistent with the event it
// is being told about.
package observe
