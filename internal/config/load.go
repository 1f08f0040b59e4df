package config

import (
	"strings"

	"go.uber.org/zap"

	"github.com/lumenshell/lumen/internal/keyfile"
	"github.com/lumenshell/lumen/internal/logging"
)

// itemSectionPrefix marks sections that configure one panel item; the
// suffix after the prefix is the item's unique name.
const itemSectionPrefix = "panel."

// Load builds a configuration tree from the store. Every field starts
// at its default and is overridden only when the stored value parses
// and validates; a failed field logs a warning and keeps the default.
func Load(s *keyfile.Store) *Config {
	c := Default()

	loadGeneral(s, &c.General)
	loadPanel(s, &c.Panel)
	loadItems(s, &c.Panel)
	loadLauncher(s, &c.Launcher)
	loadControlCenter(s, &c.ControlCenter)
	loadNotifications(s, &c.Notifications)

	return c
}

func loadGeneral(s *keyfile.Store, g *General) {
	if raw, ok := s.String("general", "stylesheet"); ok {
		if raw == "" {
			g.Stylesheet = ""
		} else if _, exists := s.String("general", "stylesheet", keyfile.FileExists); exists {
			g.Stylesheet = raw
		}
	}
}

func loadPanel(s *keyfile.Store, p *Panel) {
	if v, ok := keyfile.Enum(s, "panel", "edge", edgeNames); ok {
		p.Edge = v
	}
	if v, ok := s.Int("panel", "margin", keyfile.NonNegative); ok {
		p.Margin = v
	}
	if v, ok := s.Int("panel", "padding", keyfile.NonNegative); ok {
		p.Padding = v
	}
	if v, ok := s.Int("panel", "size", keyfile.Positive); ok {
		p.Size = v
	}
	if v, ok := s.Int("panel", "spacing", keyfile.NonNegative); ok {
		p.Spacing = v
	}
	if v, ok := s.Bool("panel", "multi-monitor"); ok {
		p.MultiMonitor = v
	}
}

// defaultItem returns the per-kind field defaults a discovered item
// starts from.
func defaultItem(name string, kind ItemKind) Item {
	item := Item{
		Name:        name,
		Kind:        kind,
		Position:    PositionStart,
		ClickAction: ClickNone,
	}
	switch kind {
	case KindIcon:
		item.Icon = IconItem{Icon: "image-missing-symbolic"}
	case KindClock:
		item.Clock = ClockItem{Format: "15:04"}
	case KindWorkspaces:
		item.Workspaces = WorkspacesItem{ButtonSize: 24, ButtonSpacing: 4}
	case KindStatus:
		item.Status = StatusItem{
			Segments: []StatusSegment{
				SegmentNetwork,
				SegmentBluetooth,
				SegmentAudio,
				SegmentBattery,
			},
			Spacing:         6,
			ShowLabels:      false,
			EnableScrolling: true,
		}
	}
	return item
}

// loadItems discovers panel items dynamically: any section named
// "panel.<name>" with a valid kind key configures one item, in file
// order. A later section reusing an earlier name is a validation error;
// the first occurrence wins and the duplicate is skipped. When the file
// defines no valid item sections the default item set stays in place.
func loadItems(s *keyfile.Store, p *Panel) {
	var items []Item
	seen := make(map[string]bool)
	discovered := false

	for _, section := range s.Sections() {
		if !strings.HasPrefix(section, itemSectionPrefix) {
			continue
		}
		name := section[len(itemSectionPrefix):]
		if name == "" {
			continue
		}
		discovered = true

		kind, ok := keyfile.Enum(s, section, "kind", itemKindNames)
		if !ok {
			continue
		}
		if seen[name] {
			logging.Warn("Duplicate panel item name, keeping the first",
				zap.String("section", section),
				zap.String("name", name),
			)
			continue
		}
		seen[name] = true

		item := defaultItem(name, kind)
		loadItem(s, section, &item)
		items = append(items, item)
	}

	if discovered && len(items) > 0 {
		p.Items = items
	}
}

func loadItem(s *keyfile.Store, section string, item *Item) {
	if v, ok := keyfile.Enum(s, section, "position", positionNames); ok {
		item.Position = v
	}
	if v, ok := keyfile.Enum(s, section, "click-action", clickActionNames); ok {
		item.ClickAction = v
	}

	switch item.Kind {
	case KindIcon:
		if v, ok := s.String(section, "icon"); ok && v != "" {
			item.Icon.Icon = v
		}
	case KindClock:
		if v, ok := s.String(section, "format"); ok && v != "" {
			item.Clock.Format = v
		}
	case KindWorkspaces:
		if v, ok := s.Int(section, "button-size", keyfile.Positive); ok {
			item.Workspaces.ButtonSize = v
		}
		if v, ok := s.Int(section, "button-spacing", keyfile.NonNegative); ok {
			item.Workspaces.ButtonSpacing = v
		}
	case KindStatus:
		if v, ok := keyfile.EnumList(s, section, "segments", statusSegmentNames, true); ok {
			item.Status.Segments = v
		}
		if v, ok := s.Int(section, "segment-spacing", keyfile.NonNegative); ok {
			item.Status.Spacing = v
		}
		if v, ok := s.Bool(section, "show-labels"); ok {
			item.Status.ShowLabels = v
		}
		if v, ok := s.Bool(section, "enable-scrolling"); ok {
			item.Status.EnableScrolling = v
		}
	}
}

func loadLauncher(s *keyfile.Store, l *Launcher) {
	if v, ok := s.Int("launcher", "width", keyfile.Positive); ok {
		l.Width = v
	}
	if v, ok := s.Int("launcher", "vertical-offset", keyfile.NonNegative); ok {
		l.VerticalOffset = v
	}
	if v, ok := s.Int("launcher", "max-height", keyfile.Positive); ok {
		l.MaxHeight = v
	}
}

func loadControlCenter(s *keyfile.Store, cc *ControlCenter) {
	if v, ok := s.Int("control-center", "width", keyfile.Positive); ok {
		cc.Width = v
	}
	if v, ok := s.Int("control-center", "height", keyfile.NonNegative); ok {
		cc.Height = v
	}
	if v, ok := keyfile.Enum(s, "control-center", "edge", edgeNames); ok {
		cc.Edge = v
	}
	if v, ok := s.Int("control-center", "offset", keyfile.NonNegative); ok {
		cc.Offset = v
	}
	if v, ok := s.Int("control-center", "padding", keyfile.NonNegative); ok {
		cc.Padding = v
	}
	if v, ok := s.Int("control-center", "spacing", keyfile.NonNegative); ok {
		cc.Spacing = v
	}
	if v, ok := keyfile.Enum(s, "control-center", "orientation", orientationNames); ok {
		cc.Orientation = v
	}
	if v, ok := keyfile.Enum(s, "control-center", "alignment", alignmentNames); ok {
		cc.Alignment = v
	}
	if v, ok := keyfile.EnumList(s, "control-center", "rows", rowNames, true); ok {
		cc.Rows = v
	}
}

func loadNotifications(s *keyfile.Store, n *Notifications) {
	if v, ok := s.Int("notifications", "width", keyfile.Positive); ok {
		n.Width = v
	}
	if v, ok := s.Int("notifications", "min-height", keyfile.Positive); ok {
		n.MinHeight = v
	}
	if v, ok := s.Int("notifications", "spacing", keyfile.NonNegative); ok {
		n.Spacing = v
	}
	// The inset is signed; negative values hang the close button over
	// the popup corner.
	if v, ok := s.Int("notifications", "close-button-inset"); ok {
		n.CloseButtonInset = v
	}
	if v, ok := s.String("notifications", "time-format"); ok && v != "" {
		n.TimeFormat = v
	}
}
