// Package storage persists the cycle config as a single settings record.
//
// Driver values:
//   - "yaml": one YAML file in the config directory (default)
//   - "sqlite": one row of a key-value table in a SQLite database
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"resttimer/internal/core/model"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown settings store driver")

// Store loads and saves the settings record.
type Store interface {
	Load() (model.Config, error)
	Save(config model.Config) error
	Path() string
	Close() error
}

// Options selects and locates a Store.
type Options struct {
	Driver string
	Dir    string
	// Fs backs the YAML driver. Nil means the OS filesystem.
	Fs afero.Fs
}

// Open initializes the configured store.
func Open(options Options) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(options.Driver))
	switch driver {
	case "", "yaml", "file":
		fs := options.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		return NewYAMLStore(fs, filepath.Join(options.Dir, settingsFileName)), nil
	case "sqlite", "sqlite3":
		return OpenSQLite(filepath.Join(options.Dir, settingsDatabaseName))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

// Watchable reports whether store keeps its record in a plain file that
// external edits can change.
func Watchable(store Store) bool {
	_, ok := store.(*YAMLStore)
	return ok
}
