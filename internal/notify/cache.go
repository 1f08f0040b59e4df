package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lumenshell/lumen/internal/eventloop"
)

// CachePath returns the per-user notification cache location,
// $XDG_CACHE_HOME/lumen/notifications.json.
func CachePath() string {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "lumen", "notifications.json")
}

// cacheEntry is the persisted form of one notification.
type cacheEntry struct {
	ID        uint32        `json:"id"`
	AppEntry  string        `json:"app-entry,omitempty"`
	AppName   string        `json:"app-name"`
	Body      string        `json:"body"`
	Summary   string        `json:"summary"`
	ImagePath string        `json:"image-path,omitempty"`
	ImageData string        `json:"image-data,omitempty"`
	Resident  bool          `json:"is-resident"`
	Time      time.Time     `json:"time"`
	Timeout   int           `json:"timeout"`
	Urgency   int           `json:"urgency"`
	Actions   []cacheAction `json:"actions"`
}

type cacheAction struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func snapshotEntry(n *Notification) cacheEntry {
	e := cacheEntry{
		ID:        n.id,
		AppEntry:  n.appEntry,
		AppName:   n.appName,
		Body:      n.body,
		Summary:   n.summary,
		ImagePath: n.imagePath,
		ImageData: n.imageData,
		Resident:  n.resident,
		Time:      n.time,
		Timeout:   n.timeout,
		Urgency:   int(n.urgency),
	}
	for _, a := range n.actions {
		e.Actions = append(e.Actions, cacheAction{ID: a.id, Label: a.label})
	}
	return e
}

func (e cacheEntry) restore() *Notification {
	n := &Notification{
		id:        e.ID,
		appEntry:  e.AppEntry,
		appName:   e.AppName,
		body:      e.Body,
		summary:   e.Summary,
		imagePath: e.ImagePath,
		imageData: e.ImageData,
		resident:  e.Resident,
		time:      e.Time,
		timeout:   e.Timeout,
		urgency:   Urgency(e.Urgency),
	}
	for _, a := range e.Actions {
		n.actions = append(n.actions, &Action{id: a.ID, label: a.Label, owner: n})
	}
	return n
}

// Cache writes the notification collection to a JSON file on a
// background worker. Writes are serialized through a mutex so
// overlapping rewrite requests never interleave partial output.
type Cache struct {
	loop *eventloop.Loop
	path string
	mu   sync.Mutex
}

// NewCache creates a cache persisting at path.
func NewCache(loop *eventloop.Loop, path string) *Cache {
	return &Cache{loop: loop, path: path}
}

// Load reads the cache file. A missing file is an empty history, not an
// error.
func (c *Cache) Load() ([]cacheEntry, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.path, err)
	}
	var entries []cacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.path, err)
	}
	return entries, nil
}

// Store writes entries asynchronously and posts the result back to the
// event loop through onDone.
func (c *Cache) Store(entries []cacheEntry, onDone func(error)) {
	go func() {
		err := c.write(entries)
		c.loop.Post(func() { onDone(err) })
	}()
}

func (c *Cache) write(entries []cacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entries == nil {
		entries = []cacheEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode notification cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", c.path, err)
	}
	return nil
}
