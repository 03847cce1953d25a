//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

const registryRunKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

func (service *platformService) EnableAutostart(appName, execPath string) error {
	if err := checkAutostartArgs(appName, execPath); err != nil {
		return err
	}
	runLine := `"` + strings.Trim(execPath, `"`) + `" run`
	if _, err := reg("add", registryRunKey, "/v", appName, "/t", "REG_SZ", "/d", runLine, "/f"); err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	return nil
}

func (service *platformService) DisableAutostart(appName string) error {
	enabled, err := service.AutostartEnabled(appName)
	if err != nil || !enabled {
		return err
	}
	if _, err := reg("delete", registryRunKey, "/v", appName, "/f"); err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}
	return nil
}

// AutostartEnabled treats a failed query as a missing value; reg exits
// non-zero in that case.
func (service *platformService) AutostartEnabled(appName string) (bool, error) {
	_, err := reg("query", registryRunKey, "/v", appName)
	return err == nil, nil
}

func reg(args ...string) (string, error) {
	output, err := exec.Command("reg", args...).CombinedOutput()
	trimmed := strings.TrimSpace(string(output))
	if err != nil {
		return trimmed, fmt.Errorf("reg %s: %w: %s", args[0], err, trimmed)
	}
	return trimmed, nil
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, "AppData", "Roaming")
}
