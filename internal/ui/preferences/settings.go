package preferences

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"resttimer/internal/core/model"
)

// ErrInvalidNumber reports a duration field that is not a whole,
// non-negative number.
var ErrInvalidNumber = errors.New("invalid number")

// DurationFields holds one duration split into minute and second entries.
type DurationFields struct {
	Minutes string
	Seconds string
}

// Settings mirrors the preferences form.
type Settings struct {
	Work        DurationFields
	EarlyNotify DurationFields
	Break       DurationFields

	LaunchAtLogin        bool
	ShowSkipButton       bool
	ShowDockIcon         bool
	EnableMediaDetection bool
}

// FromConfig fills the form from config.
func FromConfig(config model.Config) Settings {
	return Settings{
		Work:                 splitDuration(config.WorkDuration),
		EarlyNotify:          splitDuration(config.EarlyNotify),
		Break:                splitDuration(config.BreakDuration),
		LaunchAtLogin:        config.LaunchAtLogin,
		ShowSkipButton:       config.ShowSkipButton,
		ShowDockIcon:         config.ShowDockIcon,
		EnableMediaDetection: config.EnableMediaDetection,
	}
}

// Config parses the form into a config. Range checks are left to
// model.Config.Validate.
func (settings Settings) Config() (model.Config, error) {
	work, err := settings.Work.duration("work")
	if err != nil {
		return model.Config{}, err
	}
	early, err := settings.EarlyNotify.duration("early notify")
	if err != nil {
		return model.Config{}, err
	}
	rest, err := settings.Break.duration("break")
	if err != nil {
		return model.Config{}, err
	}
	return model.Config{
		WorkDuration:         work,
		BreakDuration:        rest,
		EarlyNotify:          early,
		ShowSkipButton:       settings.ShowSkipButton,
		ShowDockIcon:         settings.ShowDockIcon,
		EnableMediaDetection: settings.EnableMediaDetection,
		LaunchAtLogin:        settings.LaunchAtLogin,
	}, nil
}

func splitDuration(value time.Duration) DurationFields {
	seconds := model.Seconds(value)
	return DurationFields{
		Minutes: strconv.FormatUint(seconds/60, 10),
		Seconds: strconv.FormatUint(seconds%60, 10),
	}
}

func (fields DurationFields) duration(name string) (time.Duration, error) {
	minutes, err := parseField(fields.Minutes)
	if err != nil {
		return 0, fmt.Errorf("%s minutes: %w", name, err)
	}
	seconds, err := parseField(fields.Seconds)
	if err != nil {
		return 0, fmt.Errorf("%s seconds: %w", name, err)
	}
	// both fields fit in 32 bits, so the sum cannot wrap uint64
	duration, err := model.FromSeconds(minutes*60 + seconds)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return duration, nil
}

// parseField treats an empty entry as zero.
func parseField(value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, value)
	}
	return parsed, nil
}
