// Package cmd implements the resttimer command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"resttimer/internal/app"
	"resttimer/internal/logging"
	"resttimer/internal/platform"
	"resttimer/internal/storage"
)

var (
	logLevel  string
	logFile   string
	storeKind string
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "resttimer",
	Short: "Reminds you to take regular breaks",
	Long: `resttimer runs a work/break cycle. Shortly before each break it warns
you, then it shows a break screen until the break is over or skipped.
Locking the screen pauses the cycle and unlocking starts a fresh work period.

Without a subcommand the tray application is started.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, off)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "yaml", "Settings store driver (yaml, sqlite)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Settings directory (default: OS config dir + /RestTimer)")
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func newLogger() (*logging.Logger, error) {
	return logging.New(logging.Config{Level: logLevel, File: logFile})
}

func resolveConfigDir(service platform.Service) (string, error) {
	if configDir != "" {
		return filepath.Clean(configDir), nil
	}
	dir, err := platform.AppConfigDir(service, app.Name)
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return dir, nil
}

func openStore(dir string) (storage.Store, error) {
	store, err := storage.Open(storage.Options{Driver: storeKind, Dir: dir, Fs: afero.NewOsFs()})
	if err != nil {
		return nil, fmt.Errorf("opening settings store: %w", err)
	}
	return store, nil
}

// acquireInstance makes sure only one cycle runs per user.
func acquireInstance(dir string) (*platform.InstanceGuard, error) {
	guard, err := platform.AcquireSingleInstance(dir, app.Name)
	if errors.Is(err, platform.ErrAlreadyRunning) {
		return nil, fmt.Errorf("%s is already running", app.Name)
	}
	return guard, err
}

// buildApp opens everything a running cycle needs. The returned cleanup
// releases it in reverse order.
func buildApp(options app.Options) (*app.App, *logging.Logger, func(), error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, nil, err
	}

	service := platform.NewService()
	dir, err := resolveConfigDir(service)
	if err != nil {
		_ = logger.Close()
		return nil, nil, nil, err
	}

	guard, err := acquireInstance(dir)
	if err != nil {
		_ = logger.Close()
		return nil, nil, nil, err
	}

	store, err := openStore(dir)
	if err != nil {
		_ = guard.Release()
		_ = logger.Close()
		return nil, nil, nil, err
	}

	execPath, err := executablePath()
	if err != nil {
		logger.Warn().Err(err).Msg("cannot resolve executable, launch at login disabled")
	}

	options.Store = store
	options.Platform = service
	options.Logger = logger.Logger
	options.ExecPath = execPath
	options.WatchSettings = storage.Watchable(store)
	options.WatchLock = true
	options.WatchMedia = true

	application := app.New(options)
	logger.Info().Str("config_dir", dir).Str("store", store.Path()).Msg("resttimer starting")

	cleanup := func() {
		if err := application.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing settings store")
		}
		_ = guard.Release()
		_ = logger.Close()
	}
	return application, logger, cleanup, nil
}
