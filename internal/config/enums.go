package config

// Enum fields in the keyfile are stored as fixed nicknames. Each enum
// type carries a nickname table used by the validated getters; an
// unknown nickname fails validation and the field keeps its default.

// Edge is a screen edge the panel or control center attaches to.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeBottom
	EdgeLeft
	EdgeRight
)

var edgeNames = map[string]Edge{
	"top":    EdgeTop,
	"bottom": EdgeBottom,
	"left":   EdgeLeft,
	"right":  EdgeRight,
}

func (e Edge) String() string { return nickname(edgeNames, e) }

// Position places a panel item within the panel (leading edge, centered,
// or trailing edge).
type Position int

const (
	PositionStart Position = iota
	PositionCenter
	PositionEnd
)

var positionNames = map[string]Position{
	"start":  PositionStart,
	"center": PositionCenter,
	"end":    PositionEnd,
}

func (p Position) String() string { return nickname(positionNames, p) }

// ClickAction is what clicking a panel item does.
type ClickAction int

const (
	ClickNone ClickAction = iota
	ClickLauncher
	ClickControlCenter
)

var clickActionNames = map[string]ClickAction{
	"none":           ClickNone,
	"launcher":       ClickLauncher,
	"control-center": ClickControlCenter,
}

func (c ClickAction) String() string { return nickname(clickActionNames, c) }

// ItemKind selects the panel item variant.
type ItemKind int

const (
	KindIcon ItemKind = iota
	KindClock
	KindWorkspaces
	KindStatus
)

var itemKindNames = map[string]ItemKind{
	"icon":       KindIcon,
	"clock":      KindClock,
	"workspaces": KindWorkspaces,
	"status":     KindStatus,
}

func (k ItemKind) String() string { return nickname(itemKindNames, k) }

// StatusSegment is one indicator inside a status panel item.
type StatusSegment int

const (
	SegmentNetwork StatusSegment = iota
	SegmentBluetooth
	SegmentAudio
	SegmentBattery
)

var statusSegmentNames = map[string]StatusSegment{
	"network":   SegmentNetwork,
	"bluetooth": SegmentBluetooth,
	"audio":     SegmentAudio,
	"battery":   SegmentBattery,
}

func (s StatusSegment) String() string { return nickname(statusSegmentNames, s) }

// Orientation lays out control-center rows.
type Orientation int

const (
	OrientationVertical Orientation = iota
	OrientationHorizontal
)

var orientationNames = map[string]Orientation{
	"vertical":   OrientationVertical,
	"horizontal": OrientationHorizontal,
}

func (o Orientation) String() string { return nickname(orientationNames, o) }

// Alignment aligns the control-center content along its orientation.
type Alignment int

const (
	AlignStart Alignment = iota
	AlignCenter
	AlignEnd
)

var alignmentNames = map[string]Alignment{
	"start":  AlignStart,
	"center": AlignCenter,
	"end":    AlignEnd,
}

func (a Alignment) String() string { return nickname(alignmentNames, a) }

// Row is one control-center row kind.
type Row int

const (
	RowConnectivity Row = iota
	RowAudioOutput
	RowAudioInput
	RowBrightness
)

var rowNames = map[string]Row{
	"connectivity": RowConnectivity,
	"audio-output": RowAudioOutput,
	"audio-input":  RowAudioInput,
	"brightness":   RowBrightness,
}

func (r Row) String() string { return nickname(rowNames, r) }

// nickname reverse-looks-up the stored spelling of an enum value.
func nickname[T comparable](table map[string]T, v T) string {
	for name, val := range table {
		if val == v {
			return name
		}
	}
	return "unknown"
}

func nicknames[T comparable](table map[string]T, vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = nickname(table, v)
	}
	return out
}
