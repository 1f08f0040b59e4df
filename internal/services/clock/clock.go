// Package clock publishes the formatted wall-clock time on the event
// loop, ticking at second or minute resolution depending on the format.
package clock

import (
	"time"

	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/observe"
)

// Clock formats the current time with a configurable layout. Ticks are
// aligned to the next boundary of the layout's resolution, so a
// minute-only format wakes up once per minute.
type Clock struct {
	loop   *eventloop.Loop
	format string
	step   time.Duration
	text   string

	// Changed fires with the newly formatted text whenever it differs
	// from the previous one.
	Changed observe.Signal[string]

	pending *eventloop.Timer
}

// New creates a stopped clock with the given layout.
func New(loop *eventloop.Loop, format string) *Clock {
	return &Clock{
		loop:   loop,
		format: format,
		step:   resolution(format),
	}
}

// Text returns the last formatted time.
func (c *Clock) Text() string {
	return c.text
}

// Start begins ticking. Must be called on the event loop.
func (c *Clock) Start() {
	c.tick()
}

// Stop cancels the pending tick.
func (c *Clock) Stop() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

// SetFormat swaps the layout, re-publishes immediately, and realigns
// the tick boundary.
func (c *Clock) SetFormat(format string) {
	if c.format == format {
		return
	}
	c.format = format
	c.step = resolution(format)
	if c.pending != nil {
		c.tick()
	}
}

func (c *Clock) tick() {
	c.Stop()
	now := time.Now()
	if text := now.Format(c.format); text != c.text {
		c.text = text
		c.Changed.Emit(text)
	}
	// A small slack keeps the tick on the far side of the boundary.
	next := now.Truncate(c.step).Add(c.step)
	c.pending = c.loop.After(time.Until(next)+10*time.Millisecond, c.tick)
}

// resolution reports whether the layout renders seconds by formatting
// two instants a second apart and comparing.
func resolution(format string) time.Duration {
	ref := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
	if ref.Format(format) != ref.Add(time.Second).Format(format) {
		return time.Second
	}
	return time.Minute
}
