package config

import (
	"os"
	"path/filepath"
	"slices"
)

const (
	appName    = "lumen"
	configFile = "lumen.ini"
)

// Config is an immutable snapshot of the full configuration tree. A
// reload builds a fresh tree and publishes it wholesale; nothing mutates
// a tree that has already been handed to subscribers.
type Config struct {
	General       General
	Panel         Panel
	Launcher      Launcher
	ControlCenter ControlCenter
	Notifications Notifications
}

// General holds settings that apply to every window.
type General struct {
	// Stylesheet is a file URI; it must reference an existing file.
	// Empty selects the built-in style.
	Stylesheet string
}

// Panel configures the bar window and its ordered items.
type Panel struct {
	Edge         Edge
	Margin       int
	Padding      int
	Size         int
	Spacing      int
	MultiMonitor bool
	Items        []Item
}

// Item is one configured panel item. Kind selects which variant struct
// is meaningful; the other variants stay at their zero value.
type Item struct {
	// Name is the unique key of the item, taken from the "panel.<name>"
	// section suffix.
	Name        string
	Kind        ItemKind
	Position    Position
	ClickAction ClickAction

	Icon       IconItem
	Clock      ClockItem
	Workspaces WorkspacesItem
	Status     StatusItem
}

// IconItem shows a single named icon.
type IconItem struct {
	Icon string
}

// ClockItem shows the current time.
type ClockItem struct {
	// Format is a Go time layout string, e.g. "15:04".
	Format string
}

// WorkspacesItem shows one button per workspace.
type WorkspacesItem struct {
	ButtonSize    int
	ButtonSpacing int
}

// StatusItem shows a row of service indicators.
type StatusItem struct {
	// Segments is ordered and must not contain duplicates.
	Segments        []StatusSegment
	Spacing         int
	ShowLabels      bool
	EnableScrolling bool
}

// Launcher configures the application launcher window.
type Launcher struct {
	Width          int
	VerticalOffset int
	MaxHeight      int
}

// ControlCenter configures the control-center flyout.
type ControlCenter struct {
	Width       int
	Height      int
	Edge        Edge
	Offset      int
	Padding     int
	Spacing     int
	Orientation Orientation
	Alignment   Alignment
	// Rows is ordered and must not contain duplicates.
	Rows []Row
}

// Notifications configures notification popups.
type Notifications struct {
	Width     int
	MinHeight int
	Spacing   int
	// CloseButtonInset may be negative to hang the button over the
	// popup corner.
	CloseButtonInset int
	TimeFormat       string
}

// Path returns the per-user configuration file path,
// $XDG_CONFIG_HOME/lumen/lumen.ini.
func Path() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, configFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, configFile), nil
}

// Copy returns a deep copy of the tree.
func (c *Config) Copy() *Config {
	out := *c
	out.Panel.Items = make([]Item, len(c.Panel.Items))
	for i, item := range c.Panel.Items {
		out.Panel.Items[i] = item
		out.Panel.Items[i].Status.Segments = slices.Clone(item.Status.Segments)
	}
	out.ControlCenter.Rows = slices.Clone(c.ControlCenter.Rows)
	return &out
}

// Equal reports field-by-field equality, including nested item and list
// equality. For items only the variant selected by Kind participates.
func (c *Config) Equal(other *Config) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	if c.General != other.General ||
		!panelEqual(&c.Panel, &other.Panel) ||
		c.Launcher != other.Launcher ||
		!controlCenterEqual(&c.ControlCenter, &other.ControlCenter) ||
		c.Notifications != other.Notifications {
		return false
	}
	return true
}

func panelEqual(a, b *Panel) bool {
	if a.Edge != b.Edge || a.Margin != b.Margin || a.Padding != b.Padding ||
		a.Size != b.Size || a.Spacing != b.Spacing || a.MultiMonitor != b.MultiMonitor {
		return false
	}
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if !itemEqual(&a.Items[i], &b.Items[i]) {
			return false
		}
	}
	return true
}

func itemEqual(a, b *Item) bool {
	if a.Name != b.Name || a.Kind != b.Kind ||
		a.Position != b.Position || a.ClickAction != b.ClickAction {
		return false
	}
	switch a.Kind {
	case KindIcon:
		return a.Icon == b.Icon
	case KindClock:
		return a.Clock == b.Clock
	case KindWorkspaces:
		return a.Workspaces == b.Workspaces
	case KindStatus:
		return a.Status.Spacing == b.Status.Spacing &&
			a.Status.ShowLabels == b.Status.ShowLabels &&
			a.Status.EnableScrolling == b.Status.EnableScrolling &&
			slices.Equal(a.Status.Segments, b.Status.Segments)
	}
	return true
}

func controlCenterEqual(a, b *ControlCenter) bool {
	if a.Width != b.Width || a.Height != b.Height || a.Edge != b.Edge ||
		a.Offset != b.Offset || a.Padding != b.Padding || a.Spacing != b.Spacing ||
		a.Orientation != b.Orientation || a.Alignment != b.Alignment {
		return false
	}
	return slices.Equal(a.Rows, b.Rows)
}
