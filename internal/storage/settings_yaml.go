package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"resttimer/internal/core/model"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	WorkSeconds          uint64 `yaml:"work_seconds"`
	BreakSeconds         uint64 `yaml:"break_seconds"`
	EarlyNotifySeconds   uint64 `yaml:"early_notify_seconds"`
	ShowSkipButton       bool `yaml:"show_skip_button"`
	ShowDockIcon         bool `yaml:"show_dock_icon"`
	EnableMediaDetection bool `yaml:"enable_media_detection"`
	LaunchAtLogin        bool `yaml:"launch_at_login"`
}

// YAMLStore keeps the settings record in a single YAML file.
type YAMLStore struct {
	fs   afero.Fs
	path string
}

// NewYAMLStore returns a store for the YAML file at path on fs.
func NewYAMLStore(fs afero.Fs, path string) *YAMLStore {
	return &YAMLStore{fs: fs, path: path}
}

// Path returns the settings file location.
func (store *YAMLStore) Path() string {
	return store.path
}

// Load reads the settings record.
// If the file does not exist, default settings are returned.
func (store *YAMLStore) Load() (model.Config, error) {
	rawData, err := afero.ReadFile(store.fs, store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.DefaultConfig(), nil
		}
		return model.DefaultConfig(), fmt.Errorf("read settings file: %w", err)
	}
	return decodeSettings(rawData)
}

// Save writes the settings record. The file is replaced atomically so a
// concurrent reader never sees a partial write.
func (store *YAMLStore) Save(config model.Config) error {
	serialized, err := EncodeSettings(config)
	if err != nil {
		return err
	}

	if err := store.fs.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tempPath := store.path + ".tmp"
	if err := afero.WriteFile(store.fs, tempPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := store.fs.Rename(tempPath, store.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

// Close is a no-op for file storage.
func (store *YAMLStore) Close() error {
	return nil
}

// EncodeSettings renders config in the settings file format.
func EncodeSettings(config model.Config) ([]byte, error) {
	serialized, err := yaml.Marshal(toYAML(config))
	if err != nil {
		return nil, fmt.Errorf("marshal settings yaml: %w", err)
	}
	return serialized, nil
}

// decodeSettings parses a settings blob. Missing keys keep their defaults;
// a blob that breaks the duration invariants yields the defaults and an error.
func decodeSettings(rawData []byte) (model.Config, error) {
	fileData := toYAML(model.DefaultConfig())
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return model.DefaultConfig(), fmt.Errorf("parse settings yaml: %w", err)
	}

	config, err := fromYAML(fileData)
	if err != nil {
		return model.DefaultConfig(), fmt.Errorf("stored settings: %w", err)
	}
	if err := config.Validate(); err != nil {
		return model.DefaultConfig(), fmt.Errorf("stored settings: %w", err)
	}
	return config, nil
}

func toYAML(config model.Config) yamlSettings {
	return yamlSettings{
		WorkSeconds:          model.Seconds(config.WorkDuration),
		BreakSeconds:         model.Seconds(config.BreakDuration),
		EarlyNotifySeconds:   model.Seconds(config.EarlyNotify),
		ShowSkipButton:       config.ShowSkipButton,
		ShowDockIcon:         config.ShowDockIcon,
		EnableMediaDetection: config.EnableMediaDetection,
		LaunchAtLogin:        config.LaunchAtLogin,
	}
}

func fromYAML(fileData yamlSettings) (model.Config, error) {
	config := model.Config{
		ShowSkipButton:       fileData.ShowSkipButton,
		ShowDockIcon:         fileData.ShowDockIcon,
		EnableMediaDetection: fileData.EnableMediaDetection,
		LaunchAtLogin:        fileData.LaunchAtLogin,
	}
	for _, field := range []struct {
		key     string
		seconds uint64
		target  *time.Duration
	}{
		{"work_seconds", fileData.WorkSeconds, &config.WorkDuration},
		{"break_seconds", fileData.BreakSeconds, &config.BreakDuration},
		{"early_notify_seconds", fileData.EarlyNotifySeconds, &config.EarlyNotify},
	} {
		duration, err := model.FromSeconds(field.seconds)
		if err != nil {
			return model.Config{}, fmt.Errorf("%s: %w", field.key, err)
		}
		*field.target = duration
	}
	return config, nil
}
