package app

import (
	"context"
	"fmt"

	"github.com/lumenshell/lumen/internal/config"
	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/logging"
	"github.com/lumenshell/lumen/internal/notify"
	"github.com/lumenshell/lumen/internal/services/audio"
	"github.com/lumenshell/lumen/internal/services/battery"
	"github.com/lumenshell/lumen/internal/services/bluetooth"
	"github.com/lumenshell/lumen/internal/services/brightness"
	"github.com/lumenshell/lumen/internal/services/clock"
	"github.com/lumenshell/lumen/internal/services/network"
	"github.com/lumenshell/lumen/internal/services/workspaces"
)

// Toggles are the surface-toggle handles injected by the UI layer.
// The bar core dispatches click actions through them and never reaches
// into the windows itself.
type Toggles struct {
	Launcher      func()
	ControlCenter func()
}

// Options configures App construction. Zero values select the standard
// per-user paths and the real system integrations.
type Options struct {
	// ConfigPath overrides the configuration file location.
	ConfigPath string
	// CachePath overrides the notification cache location.
	CachePath string
	// BacklightRoot overrides the sysfs backlight directory.
	BacklightRoot string
	// Workspaces supplies the compositor IPC; nil disables the
	// workspace service.
	Workspaces workspaces.Source
	// NoDaemon skips claiming the notification daemon name.
	NoDaemon bool

	Toggles Toggles
}

// App owns the event loop, the configuration watcher, and every
// service. Services whose external collaborator could not be reached at
// startup are nil and stay nil for the session.
type App struct {
	Loop   *eventloop.Loop
	Config *config.Watcher

	Network       *network.Client
	Bluetooth     *bluetooth.Client
	Audio         *audio.Pulse
	Battery       *battery.Battery
	Backlight     *brightness.Backlight
	Clock         *clock.Clock
	Workspaces    *workspaces.Reconciler
	Notifications *notify.Store

	daemon  *notify.Daemon
	toggles Toggles
}

// New builds the full service graph. Only a broken configuration watch
// is fatal; every unavailable external service is logged and skipped.
func New(opts Options) (*App, error) {
	loop := eventloop.New()

	path := opts.ConfigPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
	}
	watcher, err := config.NewWatcher(loop, path)
	if err != nil {
		return nil, fmt.Errorf("failed to watch configuration: %w", err)
	}

	a := &App{
		Loop:    loop,
		Config:  watcher,
		toggles: opts.Toggles,
	}

	if a.Network, err = network.Connect(loop); err != nil {
		logging.ServiceUnavailable("network", err)
	}
	if a.Bluetooth, err = bluetooth.Connect(loop); err != nil {
		logging.ServiceUnavailable("bluetooth", err)
	}
	if a.Audio, err = audio.ConnectPulse(loop); err != nil {
		logging.ServiceUnavailable("audio", err)
	}
	if a.Battery, err = battery.Connect(loop); err != nil {
		logging.ServiceUnavailable("battery", err)
	}

	backlightRoot := opts.BacklightRoot
	if backlightRoot == "" {
		backlightRoot = brightness.DefaultSysfsRoot
	}
	if a.Backlight, err = brightness.Open(loop, backlightRoot); err != nil {
		logging.ServiceUnavailable("brightness", err)
	}

	if opts.Workspaces != nil {
		a.Workspaces = workspaces.New(loop, opts.Workspaces)
	}

	cachePath := opts.CachePath
	if cachePath == "" {
		cachePath = notify.CachePath()
	}
	a.Notifications = notify.NewStore(loop, notify.NewCache(loop, cachePath))
	if !opts.NoDaemon {
		if a.daemon, err = notify.StartDaemon(loop, a.Notifications); err != nil {
			// Another daemon owns the name; keep running without the
			// daemon role.
			logging.ServiceUnavailable("notification daemon", err)
		}
	}

	a.Clock = clock.New(loop, clockFormat(watcher.Current()))
	loop.Post(func() {
		a.Clock.Start()
		watcher.Subscribe(a.applyConfig)
	})
	return a, nil
}

// Run executes the event loop until ctx is cancelled, then tears the
// services down.
func (a *App) Run(ctx context.Context) {
	a.Loop.Run(ctx)
	a.close()
}

// HandleClick dispatches a panel item's click action through the
// injected toggle handles.
func (a *App) HandleClick(action config.ClickAction) {
	switch action {
	case config.ClickLauncher:
		if a.toggles.Launcher != nil {
			a.toggles.Launcher()
		}
	case config.ClickControlCenter:
		if a.toggles.ControlCenter != nil {
			a.toggles.ControlCenter()
		}
	}
}

// applyConfig pushes tree-derived service parameters on every reload.
func (a *App) applyConfig(c *config.Config) {
	a.Clock.SetFormat(clockFormat(c))
}

// clockFormat returns the first clock item's layout, or a fallback when
// the panel has none.
func clockFormat(c *config.Config) string {
	for _, item := range c.Panel.Items {
		if item.Kind == config.KindClock {
			return item.Clock.Format
		}
	}
	return "15:04"
}

func (a *App) close() {
	if a.daemon != nil {
		a.daemon.Close()
	}
	if a.Backlight != nil {
		a.Backlight.Close()
	}
	if a.Battery != nil {
		a.Battery.Close()
	}
	if a.Audio != nil {
		a.Audio.Close()
	}
	if a.Bluetooth != nil {
		a.Bluetooth.Close()
	}
	if a.Network != nil {
		a.Network.Close()
	}
	a.Config.Close()
}
