package config

// Default returns the built-in configuration tree. Every field that
// fails to load from the keyfile falls back to the value established
// here.
func Default() *Config {
	return &Config{
		General: General{
			Stylesheet: "",
		},
		Panel: Panel{
			Edge:         EdgeTop,
			Margin:       8,
			Padding:      4,
			Size:         40,
			Spacing:      8,
			MultiMonitor: false,
			Items: []Item{
				{
					Name:        "apps",
					Kind:        KindIcon,
					Position:    PositionStart,
					ClickAction: ClickLauncher,
					Icon:        IconItem{Icon: "view-grid-symbolic"},
				},
				{
					Name:       "workspaces",
					Kind:       KindWorkspaces,
					Position:   PositionStart,
					Workspaces: WorkspacesItem{ButtonSize: 24, ButtonSpacing: 4},
				},
				{
					Name:     "clock",
					Kind:     KindClock,
					Position: PositionCenter,
					Clock:    ClockItem{Format: "Mon 2 Jan 15:04"},
				},
				{
					Name:        "status",
					Kind:        KindStatus,
					Position:    PositionEnd,
					ClickAction: ClickControlCenter,
					Status: StatusItem{
						Segments: []StatusSegment{
							SegmentNetwork,
							SegmentBluetooth,
							SegmentAudio,
							SegmentBattery,
						},
						Spacing:         6,
						ShowLabels:      false,
						EnableScrolling: true,
					},
				},
			},
		},
		Launcher: Launcher{
			Width:          640,
			VerticalOffset: 96,
			MaxHeight:      480,
		},
		ControlCenter: ControlCenter{
			Width:       420,
			Height:      0,
			Edge:        EdgeRight,
			Offset:      8,
			Padding:     12,
			Spacing:     8,
			Orientation: OrientationVertical,
			Alignment:   AlignStart,
			Rows: []Row{
				RowConnectivity,
				RowAudioOutput,
				RowBrightness,
			},
		},
		Notifications: Notifications{
			Width:            400,
			MinHeight:        64,
			Spacing:          8,
			CloseButtonInset: -6,
			TimeFormat:       "15:04",
		},
	}
}
