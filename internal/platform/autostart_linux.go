//go:build linux

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (service *platformService) EnableAutostart(appName, execPath string) error {
	if err := checkAutostartArgs(appName, execPath); err != nil {
		return err
	}
	entryPath, err := service.desktopEntryPath(appName)
	if err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	if err := writeFileAtomic(entryPath, []byte(buildDesktopEntry(appName, execPath))); err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	return nil
}

func (service *platformService) DisableAutostart(appName string) error {
	entryPath, err := service.desktopEntryPath(appName)
	if err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}
	if err := os.Remove(entryPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("disable autostart: remove desktop entry: %w", err)
	}
	return nil
}

func (service *platformService) AutostartEnabled(appName string) (bool, error) {
	entryPath, err := service.desktopEntryPath(appName)
	if err != nil {
		return false, fmt.Errorf("check autostart: %w", err)
	}
	return fileExists(entryPath)
}

// desktopEntryPath resolves to $XDG_CONFIG_HOME/autostart/<slug>.desktop.
func (service *platformService) desktopEntryPath(appName string) (string, error) {
	configDir, err := service.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "autostart", slugName(appName)+".desktop"), nil
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}

// buildDesktopEntry starts the tray host; it needs no terminal.
func buildDesktopEntry(appName, execPath string) string {
	if strings.Contains(execPath, " ") && !strings.HasPrefix(execPath, `"`) {
		execPath = `"` + execPath + `"`
	}

	var entry strings.Builder
	entry.WriteString("[Desktop Entry]\n")
	for _, line := range [][2]string{
		{"Type", "Application"},
		{"Name", appName},
		{"Comment", "Reminds you to take regular breaks"},
		{"Exec", execPath + " run"},
		{"Terminal", "false"},
		{"X-GNOME-Autostart-enabled", "true"},
		{"X-GNOME-Autostart-Delay", "5"},
	} {
		entry.WriteString(line[0] + "=" + line[1] + "\n")
	}
	return entry.String()
}
