package keyfile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, data string) *Store {
	t.Helper()
	s, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return s
}

func TestParse_SyntaxError(t *testing.T) {
	if _, err := Parse([]byte("[unclosed\nkey = value\n")); err == nil {
		t.Error("Parse() should fail on an unclosed section header")
	}
}

func TestStore_Int(t *testing.T) {
	store := mustParse(t, `
[panel]
margin = 8
padding = -4
size = 0
spacing = notanumber
`)

	tests := []struct {
		name   string
		key    string
		checks []Check
		want   int
		wantOK bool
	}{
		{name: "plain value", key: "margin", want: 8, wantOK: true},
		{name: "negative passes without checks", key: "padding", want: -4, wantOK: true},
		{name: "negative fails NonNegative", key: "padding", checks: []Check{NonNegative}, wantOK: false},
		{name: "zero fails Positive", key: "size", checks: []Check{Positive}, wantOK: false},
		{name: "zero fails NonZero", key: "size", checks: []Check{NonZero}, wantOK: false},
		{name: "zero passes NonNegative", key: "size", checks: []Check{NonNegative}, want: 0, wantOK: true},
		{name: "type mismatch", key: "spacing", wantOK: false},
		{name: "missing key", key: "width", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := store.Int("panel", tt.key, tt.checks...)
			if ok != tt.wantOK {
				t.Fatalf("Int(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Int(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}

func TestStore_Bool(t *testing.T) {
	store := mustParse(t, `
[panel]
multi-monitor = true
scrolling = maybe
`)

	if v, ok := store.Bool("panel", "multi-monitor"); !ok || !v {
		t.Errorf("Bool(multi-monitor) = %v, %v, want true, true", v, ok)
	}
	if _, ok := store.Bool("panel", "scrolling"); ok {
		t.Error("Bool(scrolling) should fail on a non-boolean value")
	}
	if _, ok := store.Bool("panel", "missing"); ok {
		t.Error("Bool(missing) should fail on a missing key")
	}
}

func TestStore_String_FileExists(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "style.css")
	if err := os.WriteFile(existing, []byte("/* */"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := mustParse(t, `
[general]
stylesheet = file://`+existing+`
broken = file://`+filepath.Join(dir, "missing.css")+`
`)

	got, ok := store.String("general", "stylesheet", FileExists)
	if !ok {
		t.Fatal("String(stylesheet) should succeed for an existing file")
	}
	if got != "file://"+existing {
		t.Errorf("String(stylesheet) = %q, want the raw URI back", got)
	}
	if _, ok := store.String("general", "broken", FileExists); ok {
		t.Error("String(broken) should fail for a nonexistent file")
	}
}

func TestStore_StringList(t *testing.T) {
	store := mustParse(t, `
[control-center]
rows = connectivity; audio-output ;brightness
empty =
`)

	got, ok := store.StringList("control-center", "rows")
	if !ok {
		t.Fatal("StringList(rows) should succeed")
	}
	want := []string{"connectivity", "audio-output", "brightness"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StringList(rows) = %v, want %v", got, want)
	}

	got, ok = store.StringList("control-center", "empty")
	if !ok {
		t.Fatal("StringList(empty) should succeed for an empty value")
	}
	if len(got) != 0 {
		t.Errorf("StringList(empty) = %v, want no elements", got)
	}
}

type testEdge int

const (
	edgeTop testEdge = iota
	edgeBottom
)

var edgeTable = map[string]testEdge{
	"top":    edgeTop,
	"bottom": edgeBottom,
}

func TestEnum(t *testing.T) {
	store := mustParse(t, `
[panel]
edge = bottom
bad = left
`)

	got, ok := Enum(store, "panel", "edge", edgeTable)
	if !ok || got != edgeBottom {
		t.Errorf("Enum(edge) = %v, %v, want edgeBottom, true", got, ok)
	}
	if _, ok := Enum(store, "panel", "bad", edgeTable); ok {
		t.Error("Enum(bad) should fail on an unknown nickname")
	}
	if _, ok := Enum(store, "panel", "missing", edgeTable); ok {
		t.Error("Enum(missing) should fail on a missing key")
	}
}

func TestEnumList(t *testing.T) {
	store := mustParse(t, `
[panel]
ok = top;bottom
dup = top;top
bad = top;left
`)

	got, ok := EnumList(store, "panel", "ok", edgeTable, true)
	if !ok {
		t.Fatal("EnumList(ok) should succeed")
	}
	if !reflect.DeepEqual(got, []testEdge{edgeTop, edgeBottom}) {
		t.Errorf("EnumList(ok) = %v, want [edgeTop edgeBottom]", got)
	}

	// All-or-nothing: one bad element invalidates the whole call.
	if _, ok := EnumList(store, "panel", "bad", edgeTable, false); ok {
		t.Error("EnumList(bad) should fail when any element is unknown")
	}

	if _, ok := EnumList(store, "panel", "dup", edgeTable, true); ok {
		t.Error("EnumList(dup) should fail when distinctness is required")
	}
	if got, ok := EnumList(store, "panel", "dup", edgeTable, false); !ok || len(got) != 2 {
		t.Errorf("EnumList(dup) without distinctness = %v, %v, want 2 elements", got, ok)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store := New()
	store.SetInt("panel", "margin", 8, "Gap between panel and screen edge")
	store.SetBool("panel", "multi-monitor", true, "Show the panel on every monitor")
	store.SetString("general", "stylesheet", "file:///dev/null", "Stylesheet URI")
	store.SetList("control-center", "rows", []string{"connectivity", "brightness"}, "Rows to display")
	store.SetFloat("launcher", "opacity", 0.5, "")

	reparsed := mustParse(t, string(store.Bytes()))

	if v, ok := reparsed.Int("panel", "margin"); !ok || v != 8 {
		t.Errorf("round-trip Int = %v, %v, want 8, true", v, ok)
	}
	if v, ok := reparsed.Bool("panel", "multi-monitor"); !ok || !v {
		t.Errorf("round-trip Bool = %v, %v, want true, true", v, ok)
	}
	if v, ok := reparsed.String("general", "stylesheet"); !ok || v != "file:///dev/null" {
		t.Errorf("round-trip String = %q, %v", v, ok)
	}
	if v, ok := reparsed.StringList("control-center", "rows"); !ok || !reflect.DeepEqual(v, []string{"connectivity", "brightness"}) {
		t.Errorf("round-trip StringList = %v, %v", v, ok)
	}
	if v, ok := reparsed.Float("launcher", "opacity"); !ok || v != 0.5 {
		t.Errorf("round-trip Float = %v, %v", v, ok)
	}
}

func TestStore_Sections(t *testing.T) {
	store := mustParse(t, `
[general]
a = 1
[panel]
b = 2
[panel.clock]
kind = clock
`)

	want := []string{"general", "panel", "panel.clock"}
	if got := store.Sections(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sections() = %v, want %v", got, want)
	}
	if !store.HasSection("panel.clock") {
		t.Error("HasSection(panel.clock) = false, want true")
	}
	if store.HasKey("panel", "a") {
		t.Error("HasKey(panel, a) = true, want false")
	}
}

func TestStore_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lumen.ini")

	store := New()
	store.SetInt("panel", "size", 32, "")
	if err := store.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	reloaded, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if v, ok := reloaded.Int("panel", "size"); !ok || v != 32 {
		t.Errorf("reloaded Int = %v, %v, want 32, true", v, ok)
	}
}
