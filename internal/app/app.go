// Package app wires the cycle scheduler to settings storage, desktop
// signals and launch-at-login.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"resttimer/internal/clock"
	"resttimer/internal/core/model"
	"resttimer/internal/core/timekeeper"
	"resttimer/internal/core/triggers"
	"resttimer/internal/platform"
	"resttimer/internal/storage"
)

// Name is the application name used for config dirs, lock files and
// login items.
const Name = "RestTimer"

// Options configures an App.
type Options struct {
	Store    storage.Store
	Platform platform.Service
	Sink     timekeeper.Sink
	Logger   zerolog.Logger
	Clock    clock.Clock
	// ExecPath is registered as the login item.
	ExecPath     string
	TickInterval time.Duration

	WatchSettings bool
	WatchLock     bool
	WatchMedia    bool
	// IdleLockAfter is the idle time treated as a lock when the session
	// has no lock signals. Zero disables the fallback.
	IdleLockAfter time.Duration
}

// App owns the TimeKeeper and everything that feeds it.
type App struct {
	keeper   *timekeeper.TimeKeeper
	triggers *triggers.Adapter
	store    storage.Store
	platform platform.Service
	log      zerolog.Logger
	options  Options

	applyMu         sync.Mutex
	onConfigChanged func(model.Config)
}

// New loads the stored settings and builds the keeper. A settings record that
// cannot be read is logged and replaced by the defaults.
func New(options Options) *App {
	log := options.Logger.With().Str("component", "app").Logger()

	config := model.DefaultConfig()
	if options.Store != nil {
		loaded, err := options.Store.Load()
		if err != nil {
			log.Warn().Err(err).Str("path", options.Store.Path()).Msg("using default settings")
		}
		config = loaded
	}

	keeper := timekeeper.New(config, timekeeper.Options{
		Clock:        options.Clock,
		Sink:         options.Sink,
		Logger:       options.Logger,
		TickInterval: options.TickInterval,
	})

	return &App{
		keeper:   keeper,
		triggers: triggers.New(keeper, options.Logger),
		store:    options.Store,
		platform: options.Platform,
		log:      log,
		options:  options,
	}
}

// Keeper exposes the scheduler for UI commands.
func (app *App) Keeper() *timekeeper.TimeKeeper {
	return app.keeper
}

// Triggers exposes the desktop signal adapter.
func (app *App) Triggers() *triggers.Adapter {
	return app.triggers
}

// QuitRequested reports whether the process may exit now.
func (app *App) QuitRequested() bool {
	return app.triggers.QuitRequested()
}

// Apply validates and activates config, then persists it. A rejected config
// changes nothing and is returned. Persistence and login-item failures are
// logged only.
func (app *App) Apply(config model.Config) error {
	app.applyMu.Lock()
	defer app.applyMu.Unlock()

	previous := app.keeper.Config()
	if err := app.keeper.UpdateConfig(config); err != nil {
		return err
	}
	if app.store != nil {
		if err := app.store.Save(config); err != nil {
			app.log.Error().Err(err).Msg("save settings failed")
		}
	}
	app.syncLaunchAtLogin(previous, config)
	return nil
}

// Reload activates a config read back from the settings file. Configs equal
// to the active one are ignored, which also absorbs the watcher event caused
// by Apply's own write.
func (app *App) Reload(config model.Config) {
	app.applyMu.Lock()
	defer app.applyMu.Unlock()

	previous := app.keeper.Config()
	if config == previous {
		return
	}
	if err := app.keeper.UpdateConfig(config); err != nil {
		app.log.Warn().Err(err).Msg("reloaded settings rejected")
		return
	}
	app.log.Info().Msg("settings reloaded from disk")
	app.syncLaunchAtLogin(previous, config)
	if app.onConfigChanged != nil {
		app.onConfigChanged(config)
	}
}

// OnConfigChanged registers fn to run after Reload activates a config edited
// outside the app. fn runs on the watcher goroutine and must not call Apply
// or Reload.
func (app *App) OnConfigChanged(fn func(model.Config)) {
	app.applyMu.Lock()
	defer app.applyMu.Unlock()
	app.onConfigChanged = fn
}

func (app *App) syncLaunchAtLogin(previous, config model.Config) {
	if app.platform == nil || previous.LaunchAtLogin == config.LaunchAtLogin {
		return
	}
	if err := platform.SetLaunchAtLogin(app.platform, Name, app.options.ExecPath, config.LaunchAtLogin); err != nil {
		app.log.Error().Err(err).Bool("enabled", config.LaunchAtLogin).Msg("update launch at login failed")
	}
}

// reconcileLaunchAtLogin reinstalls a login item that was removed outside the
// app while the setting is still on.
func (app *App) reconcileLaunchAtLogin() {
	if app.platform == nil || !app.keeper.Config().LaunchAtLogin {
		return
	}
	installed, err := app.platform.AutostartEnabled(Name)
	if err != nil || installed {
		return
	}
	app.log.Info().Msg("login item missing, reinstalling")
	if err := app.platform.EnableAutostart(Name, app.options.ExecPath); err != nil {
		app.log.Error().Err(err).Msg("reinstall login item failed")
	}
}

// Run starts the cycle and the enabled background watchers, and blocks until
// ctx is cancelled. The keeper is closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.reconcileLaunchAtLogin()
	app.keeper.Start()
	defer app.keeper.Close()

	var wg sync.WaitGroup
	spawn := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				level := zerolog.WarnLevel
				if errors.Is(err, platform.ErrUnsupported) {
					level = zerolog.DebugLevel
				}
				app.log.WithLevel(level).Err(err).Str("watcher", name).Msg("watcher stopped")
			}
		}()
	}

	if app.options.WatchSettings && app.store != nil {
		watcher := storage.NewWatcher(app.store.Path(), app.store.Load, app.options.Logger)
		spawn("settings", func(ctx context.Context) error {
			return watcher.Run(ctx, app.Reload)
		})
	}
	if app.options.WatchLock {
		spawn("lock", app.watchLock)
	}
	if app.options.WatchMedia {
		spawn("media", func(ctx context.Context) error {
			return platform.WatchMediaPlayback(ctx, 0, app.triggers, app.options.Logger)
		})
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

// watchLock prefers lock signals and falls back to idle polling.
func (app *App) watchLock(ctx context.Context) error {
	err := platform.WatchScreenLock(ctx, app.triggers, app.options.Logger)
	if err == nil || !errors.Is(err, platform.ErrUnsupported) || app.options.IdleLockAfter <= 0 {
		return err
	}
	app.log.Debug().Err(err).Msg("no lock signals, polling idle time")
	return platform.WatchIdleAsLock(ctx, platform.NewIdleProvider(), platform.IdleLockOptions{
		Threshold: app.options.IdleLockAfter,
	}, app.triggers, app.options.Logger)
}

// Close stops the keeper and releases the store.
func (app *App) Close() error {
	app.keeper.Close()
	if app.store == nil {
		return nil
	}
	return app.store.Close()
}
