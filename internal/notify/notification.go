package notify

import (
	"encoding/base64"
	"time"

	"github.com/lumenshell/lumen/internal/eventloop"
)

// Urgency is the freedesktop notification urgency level.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// CloseReason mirrors the freedesktop NotificationClosed reason codes.
type CloseReason uint32

const (
	ReasonExpired   CloseReason = 1
	ReasonDismissed CloseReason = 2
	ReasonClosed    CloseReason = 3
)

// Action is one invocable action owned by a notification. The
// back-reference to the owner is cleared when the notification is
// removed, so a stale action invoke is a no-op.
type Action struct {
	id    string
	label string
	owner *Notification
}

// ID returns the action identifier sent back to the client on invoke.
func (a *Action) ID() string { return a.id }

// Label returns the human-readable action label.
func (a *Action) Label() string { return a.label }

// Notification is one live or historical notification. Mutated only on
// the event loop; consumers treat it as read-only.
type Notification struct {
	id       uint32
	appName  string
	appEntry string
	summary  string
	body     string

	// imagePath and imageData are mutually exclusive; when a client
	// sends both, the path wins.
	imagePath string
	imageData string

	resident  bool
	transient bool
	dismissed bool
	urgency   Urgency
	time      time.Time
	timeout   int
	actions   []*Action

	timer   *eventloop.Timer
	blocked int
}

func (n *Notification) ID() uint32         { return n.id }
func (n *Notification) AppName() string    { return n.appName }
func (n *Notification) AppEntry() string   { return n.appEntry }
func (n *Notification) Summary() string    { return n.summary }
func (n *Notification) Body() string       { return n.body }
func (n *Notification) ImagePath() string  { return n.imagePath }
func (n *Notification) ImageData() string  { return n.imageData }
func (n *Notification) Resident() bool     { return n.resident }
func (n *Notification) Transient() bool    { return n.transient }
func (n *Notification) Dismissed() bool    { return n.dismissed }
func (n *Notification) Urgency() Urgency   { return n.urgency }
func (n *Notification) Time() time.Time    { return n.time }
func (n *Notification) Timeout() int       { return n.timeout }
func (n *Notification) Actions() []*Action { return n.actions }

// applyHints fills the hint-derived fields from a decoded hint map.
func (n *Notification) applyHints(hints map[string]any) {
	if v, ok := hints["desktop-entry"].(string); ok {
		n.appEntry = v
	}
	if v, ok := hints["resident"].(bool); ok {
		n.resident = v
	}
	if v, ok := hints["transient"].(bool); ok {
		n.transient = v
	}
	switch v := hints["urgency"].(type) {
	case byte:
		n.urgency = Urgency(v)
	case int:
		n.urgency = Urgency(v)
	}

	n.imagePath = ""
	n.imageData = ""
	if v, ok := hints["image-path"].(string); ok && v != "" {
		n.imagePath = v
	}
	if n.imagePath == "" {
		if raw, ok := imageDataBytes(hints); ok {
			n.imageData = base64.StdEncoding.EncodeToString(raw)
		}
	}
}

// imageDataBytes extracts the raw pixel payload from the structured
// image-data hint (the last member of the icon struct).
func imageDataBytes(hints map[string]any) ([]byte, bool) {
	v, ok := hints["image-data"]
	if !ok {
		v, ok = hints["icon_data"]
	}
	if !ok {
		return nil, false
	}
	fields, ok := v.([]any)
	if !ok || len(fields) == 0 {
		return nil, false
	}
	raw, ok := fields[len(fields)-1].([]byte)
	if !ok || len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

func (n *Notification) setActions(pairs []string) {
	for _, a := range n.actions {
		a.owner = nil
	}
	n.actions = n.actions[:0]
	// Flattened id/label pairs; a trailing unpaired id is dropped.
	for i := 0; i+1 < len(pairs); i += 2 {
		n.actions = append(n.actions, &Action{id: pairs[i], label: pairs[i+1], owner: n})
	}
}

func (n *Notification) stopTimer() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
