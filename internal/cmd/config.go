package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"resttimer/internal/app"
	"resttimer/internal/core/model"
	"resttimer/internal/platform"
	"resttimer/internal/storage"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the stored settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set key=value...",
	Short: "Change stored settings",
	Long: `Change one or more stored settings. A running instance picks up the
change from the settings file.

Keys:
  work, break, early-notify     durations, e.g. 25m, 90s or plain seconds
  skip-button, dock-icon,
  media-detection, launch-at-login   true or false

The result must keep the early notice shorter than the work period and the
break longer than zero; otherwise nothing is saved.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func withStore(fn func(store storage.Store, service platform.Service) error) error {
	service := platform.NewService()
	dir, err := resolveConfigDir(service)
	if err != nil {
		return err
	}
	store, err := openStore(dir)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store, service)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	return withStore(func(store storage.Store, _ platform.Service) error {
		config, err := store.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		serialized, err := storage.EncodeSettings(config)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", store.Path(), serialized)
		return nil
	})
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	return withStore(func(store storage.Store, service platform.Service) error {
		config, err := store.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		previous := config

		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("expected key=value, got %q", arg)
			}
			if err := applySetting(&config, key, value); err != nil {
				return err
			}
		}
		if err := config.Validate(); err != nil {
			return err
		}
		if err := store.Save(config); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}

		if previous.LaunchAtLogin != config.LaunchAtLogin {
			if err := setLaunchAtLogin(service, config.LaunchAtLogin); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", store.Path())
		return nil
	})
}

// applySetting parses one key=value pair into config.
func applySetting(config *model.Config, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	switch key {
	case "work", "break", "early-notify":
		duration, err := parseSettingDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		switch key {
		case "work":
			config.WorkDuration = duration
		case "break":
			config.BreakDuration = duration
		default:
			config.EarlyNotify = duration
		}
		return nil
	case "skip-button", "dock-icon", "media-detection", "launch-at-login":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		switch key {
		case "skip-button":
			config.ShowSkipButton = enabled
		case "dock-icon":
			config.ShowDockIcon = enabled
		case "media-detection":
			config.EnableMediaDetection = enabled
		default:
			config.LaunchAtLogin = enabled
		}
		return nil
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
}

// parseSettingDuration accepts Go durations or whole seconds. Stored values
// have second precision.
func parseSettingDuration(value string) (time.Duration, error) {
	if seconds, err := strconv.ParseUint(value, 10, 32); err == nil {
		return model.FromSeconds(seconds)
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration %q", value)
	}
	return duration.Truncate(time.Second), nil
}

func setLaunchAtLogin(service platform.Service, enabled bool) error {
	execPath := ""
	if enabled {
		resolved, err := executablePath()
		if err != nil {
			return err
		}
		execPath = resolved
	}
	if err := platform.SetLaunchAtLogin(service, app.Name, execPath, enabled); err != nil {
		return fmt.Errorf("updating launch at login: %w", err)
	}
	return nil
}
