package config

import (
	"github.com/lumenshell/lumen/internal/keyfile"
)

// Store serializes the full tree into s, one comment per key so that a
// generated file documents itself. Load(Store(c)) yields a tree equal
// to c whenever every field of c is within its valid range.
func (c *Config) Store(s *keyfile.Store) {
	s.SetSectionComment("general", "Settings that apply to every window")
	s.SetString("general", "stylesheet", c.General.Stylesheet,
		"File URI of a custom stylesheet; empty selects the built-in style")

	s.SetSectionComment("panel", "The bar window")
	s.SetString("panel", "edge", c.Panel.Edge.String(),
		"Screen edge the panel attaches to (top, bottom, left, right)")
	s.SetInt("panel", "margin", c.Panel.Margin,
		"Gap between the panel and the screen edge, in pixels")
	s.SetInt("panel", "padding", c.Panel.Padding,
		"Inner padding of the panel, in pixels")
	s.SetInt("panel", "size", c.Panel.Size,
		"Thickness of the panel, in pixels")
	s.SetInt("panel", "spacing", c.Panel.Spacing,
		"Space between panel items, in pixels")
	s.SetBool("panel", "multi-monitor", c.Panel.MultiMonitor,
		"Show the panel on every monitor instead of the primary one")

	for i := range c.Panel.Items {
		storeItem(s, &c.Panel.Items[i])
	}

	s.SetSectionComment("launcher", "The application launcher window")
	s.SetInt("launcher", "width", c.Launcher.Width,
		"Width of the launcher, in pixels")
	s.SetInt("launcher", "vertical-offset", c.Launcher.VerticalOffset,
		"Distance from the top of the screen, in pixels")
	s.SetInt("launcher", "max-height", c.Launcher.MaxHeight,
		"Maximum height of the result list, in pixels")

	cc := &c.ControlCenter
	s.SetSectionComment("control-center", "The control-center flyout")
	s.SetInt("control-center", "width", cc.Width,
		"Width of the control center, in pixels")
	s.SetInt("control-center", "height", cc.Height,
		"Height of the control center, in pixels; 0 sizes to content")
	s.SetString("control-center", "edge", cc.Edge.String(),
		"Screen edge the control center attaches to (top, bottom, left, right)")
	s.SetInt("control-center", "offset", cc.Offset,
		"Gap between the control center and its edge, in pixels")
	s.SetInt("control-center", "padding", cc.Padding,
		"Inner padding, in pixels")
	s.SetInt("control-center", "spacing", cc.Spacing,
		"Space between rows, in pixels")
	s.SetString("control-center", "orientation", cc.Orientation.String(),
		"Row layout direction (vertical, horizontal)")
	s.SetString("control-center", "alignment", cc.Alignment.String(),
		"Content alignment along the orientation (start, center, end)")
	s.SetList("control-center", "rows", nicknames(rowNames, cc.Rows),
		"Ordered rows to display (connectivity, audio-output, audio-input, brightness)")

	n := &c.Notifications
	s.SetSectionComment("notifications", "Notification popups")
	s.SetInt("notifications", "width", n.Width,
		"Width of a notification popup, in pixels")
	s.SetInt("notifications", "min-height", n.MinHeight,
		"Minimum height of a notification popup, in pixels")
	s.SetInt("notifications", "spacing", n.Spacing,
		"Space between stacked popups, in pixels")
	s.SetInt("notifications", "close-button-inset", n.CloseButtonInset,
		"Inset of the close button; negative hangs it over the corner")
	s.SetString("notifications", "time-format", n.TimeFormat,
		"Go time layout used for the notification timestamp")
}

func storeItem(s *keyfile.Store, item *Item) {
	section := itemSectionPrefix + item.Name

	s.SetSectionComment(section, "Panel item "+item.Name)
	s.SetString(section, "kind", item.Kind.String(),
		"Item kind (icon, clock, workspaces, status)")
	s.SetString(section, "position", item.Position.String(),
		"Placement within the panel (start, center, end)")
	s.SetString(section, "click-action", item.ClickAction.String(),
		"Window toggled on click (none, launcher, control-center)")

	switch item.Kind {
	case KindIcon:
		s.SetString(section, "icon", item.Icon.Icon,
			"Icon name to display")
	case KindClock:
		s.SetString(section, "format", item.Clock.Format,
			"Go time layout for the clock text")
	case KindWorkspaces:
		s.SetInt(section, "button-size", item.Workspaces.ButtonSize,
			"Workspace button size, in pixels")
		s.SetInt(section, "button-spacing", item.Workspaces.ButtonSpacing,
			"Space between workspace buttons, in pixels")
	case KindStatus:
		s.SetList(section, "segments", nicknames(statusSegmentNames, item.Status.Segments),
			"Ordered indicators to display (network, bluetooth, audio, battery)")
		s.SetInt(section, "segment-spacing", item.Status.Spacing,
			"Space between indicators, in pixels")
		s.SetBool(section, "show-labels", item.Status.ShowLabels,
			"Show a text label next to each indicator")
		s.SetBool(section, "enable-scrolling", item.Status.EnableScrolling,
			"Adjust volume by scrolling over the audio indicator")
	}
}
