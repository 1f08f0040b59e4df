package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lumenshell/lumen/internal/keyfile"
)

func TestRoundTrip_Default(t *testing.T) {
	def := Default()

	store := keyfile.New()
	def.Store(store)

	reparsed, err := keyfile.Parse(store.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	loaded := Load(reparsed)
	if !loaded.Equal(def) {
		t.Error("Load(Store(Default())) should equal Default()")
	}
}

func TestRoundTrip_Modified(t *testing.T) {
	css := filepath.Join(t.TempDir(), "style.css")
	if err := os.WriteFile(css, []byte("/* */"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Default()
	c.General.Stylesheet = "file://" + css
	c.Panel.Edge = EdgeBottom
	c.Panel.Margin = 0
	c.Panel.MultiMonitor = true
	c.Panel.Items = []Item{
		{
			Name:     "time",
			Kind:     KindClock,
			Position: PositionCenter,
			Clock:    ClockItem{Format: "15:04:05"},
		},
		{
			Name:        "tray",
			Kind:        KindStatus,
			Position:    PositionEnd,
			ClickAction: ClickControlCenter,
			Status: StatusItem{
				Segments:        []StatusSegment{SegmentBattery, SegmentNetwork},
				Spacing:         2,
				ShowLabels:      true,
				EnableScrolling: false,
			},
		},
	}
	c.Launcher.Width = 800
	c.ControlCenter.Rows = []Row{RowBrightness, RowAudioInput}
	c.Notifications.CloseButtonInset = 4

	store := keyfile.New()
	c.Store(store)

	reparsed, err := keyfile.Parse(store.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	loaded := Load(reparsed)
	if !loaded.Equal(c) {
		t.Errorf("round-trip mismatch:\nstored:\n%s", store.Bytes())
	}
}

func TestLoad_InvalidFieldFallsBack(t *testing.T) {
	// Serialize the defaults, then corrupt individual fields. The
	// loaded tree must equal the defaults: the bad field falls back,
	// everything else is untouched.
	tests := []struct {
		name    string
		section string
		key     string
		value   string
	}{
		{name: "negative margin", section: "panel", key: "margin", value: "-5"},
		{name: "zero size", section: "panel", key: "size", value: "0"},
		{name: "non-integer spacing", section: "panel", key: "spacing", value: "wide"},
		{name: "unknown edge", section: "panel", key: "edge", value: "diagonal"},
		{name: "non-boolean multi-monitor", section: "panel", key: "multi-monitor", value: "sometimes"},
		{name: "duplicate rows", section: "control-center", key: "rows", value: "connectivity;connectivity"},
		{name: "unknown row", section: "control-center", key: "rows", value: "connectivity;teleport"},
		{name: "nonexistent stylesheet", section: "general", key: "stylesheet", value: "file:///nonexistent/style.css"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := keyfile.New()
			Default().Store(store)
			store.SetString(tt.section, tt.key, tt.value, "")

			reparsed, err := keyfile.Parse(store.Bytes())
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			loaded := Load(reparsed)
			if !loaded.Equal(Default()) {
				t.Errorf("tree with invalid %s.%s should equal the defaults", tt.section, tt.key)
			}
		})
	}
}

func TestLoad_ItemDiscovery(t *testing.T) {
	store, err := keyfile.Parse([]byte(`
[panel.right-clock]
kind = clock
position = end
format = 15:04:05

[panel.broken]
kind = teleporter

[panel.launcher-btn]
kind = icon
icon = start-here-symbolic
click-action = launcher
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	c := Load(store)

	if len(c.Panel.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2 (invalid kind skipped)", len(c.Panel.Items))
	}

	clock := c.Panel.Items[0]
	if clock.Name != "right-clock" || clock.Kind != KindClock {
		t.Errorf("first item = %s/%v, want right-clock/clock", clock.Name, clock.Kind)
	}
	if clock.Position != PositionEnd {
		t.Errorf("clock.Position = %v, want end", clock.Position)
	}
	if clock.Clock.Format != "15:04:05" {
		t.Errorf("clock.Format = %q, want 15:04:05", clock.Clock.Format)
	}

	btn := c.Panel.Items[1]
	if btn.Name != "launcher-btn" || btn.Kind != KindIcon {
		t.Errorf("second item = %s/%v, want launcher-btn/icon", btn.Name, btn.Kind)
	}
	if btn.ClickAction != ClickLauncher {
		t.Errorf("btn.ClickAction = %v, want launcher", btn.ClickAction)
	}
	if btn.Icon.Icon != "start-here-symbolic" {
		t.Errorf("btn.Icon = %q, want start-here-symbolic", btn.Icon.Icon)
	}
}

func TestLoad_NoItemSectionsKeepsDefaults(t *testing.T) {
	store, err := keyfile.Parse([]byte("[panel]\nmargin = 2\n"))
	if err != nil {
		t.Fatal(err)
	}

	c := Load(store)
	if c.Panel.Margin != 2 {
		t.Errorf("Margin = %d, want 2", c.Panel.Margin)
	}
	if len(c.Panel.Items) != len(Default().Panel.Items) {
		t.Errorf("len(Items) = %d, want the default item set", len(c.Panel.Items))
	}
}

func TestConfig_Equal(t *testing.T) {
	base := Default()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "scalar field", mutate: func(c *Config) { c.Panel.Margin++ }},
		{name: "enum field", mutate: func(c *Config) { c.ControlCenter.Edge = EdgeLeft }},
		{name: "item name", mutate: func(c *Config) { c.Panel.Items[0].Name = "renamed" }},
		{name: "item variant field", mutate: func(c *Config) { c.Panel.Items[2].Clock.Format = "3PM" }},
		{name: "segment order", mutate: func(c *Config) {
			segs := c.Panel.Items[3].Status.Segments
			segs[0], segs[1] = segs[1], segs[0]
		}},
		{name: "row list length", mutate: func(c *Config) {
			c.ControlCenter.Rows = c.ControlCenter.Rows[:1]
		}},
		{name: "item count", mutate: func(c *Config) {
			c.Panel.Items = c.Panel.Items[:2]
		}},
		{name: "signed inset", mutate: func(c *Config) { c.Notifications.CloseButtonInset *= -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := base.Copy()
			tt.mutate(changed)
			if changed.Equal(base) {
				t.Error("Equal() = true after mutation, want false")
			}
		})
	}

	if !base.Equal(base.Copy()) {
		t.Error("Equal() = false for an unmodified copy, want true")
	}
}

func TestConfig_CopyIsDeep(t *testing.T) {
	orig := Default()
	cp := orig.Copy()

	cp.Panel.Items[3].Status.Segments[0] = SegmentBattery
	cp.ControlCenter.Rows[0] = RowBrightness

	if orig.Panel.Items[3].Status.Segments[0] != SegmentNetwork {
		t.Error("mutating the copy's segments changed the original")
	}
	if orig.ControlCenter.Rows[0] != RowConnectivity {
		t.Error("mutating the copy's rows changed the original")
	}
}

func TestItemEqual_IgnoresInactiveVariant(t *testing.T) {
	a := Item{Name: "x", Kind: KindClock, Clock: ClockItem{Format: "15:04"}}
	b := a
	b.Icon.Icon = "leftover-from-another-kind"

	if !itemEqual(&a, &b) {
		t.Error("itemEqual should ignore variants not selected by Kind")
	}
}
