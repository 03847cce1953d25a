package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"resttimer/internal/core/model"
)

const defaultWatchDebounce = 250 * time.Millisecond

// Watcher reloads a settings file after it changes on disk.
type Watcher struct {
	path     string
	load     func() (model.Config, error)
	log      zerolog.Logger
	debounce time.Duration
}

// NewWatcher watches the file at path and reloads it with load.
func NewWatcher(path string, load func() (model.Config, error), logger zerolog.Logger) *Watcher {
	return &Watcher{
		path:     path,
		load:     load,
		log:      logger.With().Str("component", "settings_watch").Str("path", path).Logger(),
		debounce: defaultWatchDebounce,
	}
}

// Run delivers every successfully reloaded config to onChange until ctx is
// cancelled. Editors often emit several events per save; they are debounced
// into one reload. Files that fail to parse or validate are logged and skipped.
func (watcher *Watcher) Run(ctx context.Context, onChange func(model.Config)) error {
	dir := filepath.Dir(watcher.path)
	file := filepath.Base(watcher.path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watch settings dir: %w", err)
	}
	watcher.log.Debug().Msg("settings watcher started")

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	reload := func() {
		if ctx.Err() != nil {
			return
		}
		config, err := watcher.load()
		if err != nil {
			watcher.log.Warn().Err(err).Msg("settings reload failed")
			return
		}
		onChange(config)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Base(event.Name), file) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watcher.debounce, reload)
			timerMu.Unlock()
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			watcher.log.Warn().Err(err).Msg("settings watcher error")
		}
	}
}
