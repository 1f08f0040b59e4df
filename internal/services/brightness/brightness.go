// Package brightness exposes the sysfs backlight as a percentage and
// follows external changes through a file watch, so adjustments made by
// hardware keys or other tools show up without polling.
package brightness

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/logging"
	"github.com/lumenshell/lumen/internal/observe"
)

// DefaultSysfsRoot is where the kernel exposes backlight devices.
const DefaultSysfsRoot = "/sys/class/backlight"

// Backlight drives one sysfs backlight device.
type Backlight struct {
	loop *eventloop.Loop
	dir  string
	max  int

	percent int

	// Changed fires with the new percentage after any brightness change,
	// local or external.
	Changed observe.Signal[int]

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// Open picks the first backlight device under root and starts watching
// its brightness file. No device means no brightness service for the
// session.
func Open(loop *eventloop.Loop, root string) (*Backlight, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no backlight device under %s", root)
	}
	dir := filepath.Join(root, entries[0].Name())

	max, err := readSysfsInt(filepath.Join(dir, "max_brightness"))
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		return nil, fmt.Errorf("invalid max_brightness %d in %s", max, dir)
	}

	b := &Backlight{
		loop: loop,
		dir:  dir,
		max:  max,
		done: make(chan struct{}),
	}
	if err := b.refresh(); err != nil {
		return nil, err
	}

	b.fsw, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := b.fsw.Add(dir); err != nil {
		b.fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	go b.watchLoop()
	return b, nil
}

// Device returns the sysfs device directory in use.
func (b *Backlight) Device() string {
	return b.dir
}

// Percent returns the last read brightness percentage.
func (b *Backlight) Percent() int {
	return b.percent
}

// SetPercent writes the brightness, clamped to 0-100. The watch event
// from the write itself is absorbed by the refresh no-change check.
func (b *Backlight) SetPercent(percent int) error {
	percent = min(max(percent, 0), 100)
	raw := int(math.Round(float64(percent) / 100 * float64(b.max)))
	path := filepath.Join(b.dir, "brightness")
	if err := os.WriteFile(path, []byte(strconv.Itoa(raw)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	b.apply(percent)
	return nil
}

// Close stops the file watch.
func (b *Backlight) Close() error {
	close(b.done)
	return b.fsw.Close()
}

func (b *Backlight) watchLoop() {
	for {
		select {
		case <-b.done:
			return
		case event, ok := <-b.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != "brightness" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			b.loop.Post(func() {
				if err := b.refresh(); err != nil {
					logging.Warn("Failed to re-read brightness", zap.Error(err))
				}
			})
		case err, ok := <-b.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn("Brightness watch error", zap.Error(err))
		}
	}
}

func (b *Backlight) refresh() error {
	raw, err := readSysfsInt(filepath.Join(b.dir, "brightness"))
	if err != nil {
		return err
	}
	percent := int(math.Round(float64(raw) / float64(b.max) * 100))
	b.apply(min(max(percent, 0), 100))
	return nil
}

func (b *Backlight) apply(percent int) {
	if b.percent == percent {
		return
	}
	b.percent = percent
	b.Changed.Emit(percent)
}

func readSysfsInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return n, nil
}
