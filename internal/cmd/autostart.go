package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"resttimer/internal/app"
	"resttimer/internal/platform"
	"resttimer/internal/storage"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Manage launch at login",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Start the tray application at login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAutostart(cmd, true)
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop starting at login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAutostart(cmd, false)
	},
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the login item is installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store storage.Store, service platform.Service) error {
			installed, err := service.AutostartEnabled(app.Name)
			if err != nil {
				return err
			}
			config, err := store.Load()
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed: %t\nsetting:   %t\n", installed, config.LaunchAtLogin)
			return nil
		})
	},
}

func init() {
	autostartCmd.AddCommand(autostartEnableCmd, autostartDisableCmd, autostartStatusCmd)
	rootCmd.AddCommand(autostartCmd)
}

// runAutostart updates the login item and the stored flag together.
func runAutostart(cmd *cobra.Command, enabled bool) error {
	return withStore(func(store storage.Store, service platform.Service) error {
		if err := setLaunchAtLogin(service, enabled); err != nil {
			return err
		}

		config, err := store.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		if config.LaunchAtLogin != enabled {
			config.LaunchAtLogin = enabled
			if err := store.Save(config); err != nil {
				return fmt.Errorf("saving settings: %w", err)
			}
		}

		state := "disabled"
		if enabled {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "launch at login %s\n", state)
		return nil
	})
}

func executablePath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}
	return execPath, nil
}
