// Package notify implements the notification store and the
// freedesktop notification daemon.
//
// Notifications have two terminal paths: dismissal marks a notification
// as history without removing it, so a full history view can still show
// it, while closing removes it from the collection entirely. The popup
// view is the non-dismissed subset. The collection persists to a JSON
// cache (transient notifications excluded) through a background worker
// whose writes are serialized; on startup the cache restores as
// dismissed history and the id counter continues past the highest
// restored id.
package notify
