// Package app wires the bar core together: one event loop, the
// configuration watcher, and the OS-integration services. The UI layer
// injects its surface-toggle handles and subscribes to the services'
// signals; it never constructs or mutates them directly.
package app
