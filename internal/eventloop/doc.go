// Package eventloop provides the single-threaded cooperative scheduler
// that all lumen state lives on.
//
// External event sources (D-Bus signals, file-system notifications,
// timers) run on their own goroutines and hand work to the loop with
// Post. Reconcilers and the configuration tree are only ever touched
// from loop tasks, so they need no internal locking and observers see
// derived state that is consistent with the mutation that produced it.
//
// The one exception in the codebase is the notification cache writer,
// which serializes file writes on a worker goroutine and posts its
// completion back to the loop.
package eventloop
