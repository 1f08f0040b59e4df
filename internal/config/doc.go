// Package config implements the typed configuration tree for lumen and
// its live-reload pipeline.
//
// The tree is loaded from an INI keyfile at
// $XDG_CONFIG_HOME/lumen/lumen.ini. Every field is validated
// individually; a field that is missing, malformed, or out of range
// logs a warning and keeps its default, while a syntactically malformed
// file abandons the whole reload and the previous tree stays current.
//
// # Panel Items
//
// Panel items are discovered dynamically: every section named
// "panel.<name>" with a valid kind key configures one item, in file
// order, with <name> as the item's unique key. Duplicate names are a
// validation error; the first occurrence wins.
//
// # Live Reload
//
// Watcher follows the file (and, when it is a symlink, its resolved
// target) through fsnotify, coalesces bursts of events behind a 250 ms
// debounce window, and publishes a freshly loaded tree only when it is
// structurally unequal to the current one. Published trees are
// immutable snapshots; subscribers never observe partial updates.
package config
