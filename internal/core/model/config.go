package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidDurationConfig matches every InvalidConfigError via errors.Is.
var ErrInvalidDurationConfig = errors.New("invalid duration config")

// ErrDurationTooLong is returned for second counts a time.Duration cannot hold.
var ErrDurationTooLong = errors.New("duration too long")

// MaxSeconds is the largest whole-second count FromSeconds accepts.
const MaxSeconds uint64 = math.MaxInt64 / uint64(time.Second)

// InvalidReason names the rule a rejected Config broke.
type InvalidReason string

const (
	ReasonEarlyNotifyTooLong InvalidReason = "early_notify_too_long"
	ReasonBreakTooShort      InvalidReason = "break_too_short"
	ReasonNegativeDuration   InvalidReason = "negative_duration"
)

// InvalidConfigError describes why a Config was rejected.
type InvalidConfigError struct {
	Reason InvalidReason
	Config Config
}

func (err *InvalidConfigError) Error() string {
	switch err.Reason {
	case ReasonEarlyNotifyTooLong:
		return fmt.Sprintf("early notify (%s) must be shorter than the work duration (%s)",
			err.Config.EarlyNotify, err.Config.WorkDuration)
	case ReasonBreakTooShort:
		return "break duration must be positive"
	case ReasonNegativeDuration:
		return "durations must not be negative"
	default:
		return string(err.Reason)
	}
}

func (err *InvalidConfigError) Is(target error) bool {
	return target == ErrInvalidDurationConfig
}

// Config holds the cycle durations and user-facing feature flags.
type Config struct {
	WorkDuration  time.Duration
	BreakDuration time.Duration
	EarlyNotify   time.Duration

	ShowSkipButton       bool
	ShowDockIcon         bool
	EnableMediaDetection bool
	LaunchAtLogin        bool
}

// DefaultConfig returns the out-of-the-box schedule: 25 minutes of work,
// a 3 minute break and a warning 2 minutes before the break.
func DefaultConfig() Config {
	return Config{
		WorkDuration:   25 * time.Minute,
		BreakDuration:  3 * time.Minute,
		EarlyNotify:    2 * time.Minute,
		ShowSkipButton: true,
	}
}

// Validate checks the duration invariants. It never adjusts values.
func (config Config) Validate() error {
	if config.WorkDuration < 0 || config.BreakDuration < 0 || config.EarlyNotify < 0 {
		return &InvalidConfigError{Reason: ReasonNegativeDuration, Config: config}
	}
	if config.EarlyNotify >= config.WorkDuration {
		return &InvalidConfigError{Reason: ReasonEarlyNotifyTooLong, Config: config}
	}
	if config.BreakDuration <= 0 {
		return &InvalidConfigError{Reason: ReasonBreakTooShort, Config: config}
	}
	return nil
}

// WorkTimingChanged reports whether other differs in the values that drive
// the work-phase timers.
func (config Config) WorkTimingChanged(other Config) bool {
	return config.WorkDuration != other.WorkDuration || config.EarlyNotify != other.EarlyNotify
}

// Seconds converts a duration to whole seconds, the unit used for persistence.
func Seconds(value time.Duration) uint64 {
	if value <= 0 {
		return 0
	}
	return uint64(value / time.Second)
}

// FromSeconds converts persisted whole seconds back to a duration. Counts
// above MaxSeconds return ErrDurationTooLong.
func FromSeconds(seconds uint64) (time.Duration, error) {
	if seconds > MaxSeconds {
		return 0, fmt.Errorf("%w: %d seconds", ErrDurationTooLong, seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}
