package preferences

import (
	"errors"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resttimer/internal/core/model"
)

func TestFromConfig(t *testing.T) {
	config := model.DefaultConfig()
	config.WorkDuration = 25*time.Minute + 30*time.Second

	settings := FromConfig(config)
	assert.Equal(t, DurationFields{Minutes: "25", Seconds: "30"}, settings.Work)
	assert.Equal(t, DurationFields{Minutes: "2", Seconds: "0"}, settings.EarlyNotify)
	assert.Equal(t, DurationFields{Minutes: "3", Seconds: "0"}, settings.Break)
	assert.True(t, settings.ShowSkipButton)
}

func TestSettingsConfig(t *testing.T) {
	settings := Settings{
		Work:                 DurationFields{Minutes: "0", Seconds: "300"},
		EarlyNotify:          DurationFields{Minutes: "", Seconds: "30"},
		Break:                DurationFields{Minutes: " 1 ", Seconds: ""},
		EnableMediaDetection: true,
	}

	config, err := settings.Config()
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, config.WorkDuration)
	assert.Equal(t, 30*time.Second, config.EarlyNotify)
	assert.Equal(t, time.Minute, config.BreakDuration)
	assert.True(t, config.EnableMediaDetection)
}

func TestSettingsConfigRejectsGarbage(t *testing.T) {
	settings := FromConfig(model.DefaultConfig())
	settings.Break.Seconds = "-5"

	_, err := settings.Config()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidNumber)
	assert.Contains(t, err.Error(), "break seconds")
}

func TestDurationFields(t *testing.T) {
	tests := []struct {
		name    string
		fields  DurationFields
		want    time.Duration
		wantErr error
	}{
		{"minutes and seconds", DurationFields{Minutes: "25", Seconds: "30"}, 25*time.Minute + 30*time.Second, nil},
		{"largest minutes", DurationFields{Minutes: "153722867"}, 153722867 * time.Minute, nil},
		{"minutes past duration range", DurationFields{Minutes: "153722868"}, 0, model.ErrDurationTooLong},
		{"max uint32 minutes", DurationFields{Minutes: "4294967295", Seconds: "59"}, 0, model.ErrDurationTooLong},
		{"beyond uint32", DurationFields{Seconds: "4294967296"}, 0, ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fields.duration("work")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "work")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRejectionMessage(t *testing.T) {
	config := model.DefaultConfig()
	config.EarlyNotify = config.WorkDuration
	assert.Contains(t, rejectionMessage(config.Validate()), "shorter than the work duration")
	assert.Equal(t, "boom", rejectionMessage(errors.New("boom")))
}

func TestWindowApplyRevertsRejectedValues(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	var applied []model.Config
	prefs := New(app, model.DefaultConfig(), func(config model.Config) error {
		if err := config.Validate(); err != nil {
			return err
		}
		applied = append(applied, config)
		return nil
	})
	prefs.showErrs = false

	prefs.early.minutes.SetText("30")
	prefs.handleApply()

	require.Error(t, prefs.lastErr)
	assert.ErrorIs(t, prefs.lastErr, model.ErrInvalidDurationConfig)
	assert.Equal(t, "2", prefs.early.minutes.Text)
	assert.Empty(t, applied)

	prefs.work.minutes.SetText("50")
	prefs.media.SetChecked(true)
	prefs.handleApply()

	require.NoError(t, prefs.lastErr)
	require.Len(t, applied, 1)
	assert.Equal(t, 50*time.Minute, applied[0].WorkDuration)
	assert.True(t, applied[0].EnableMediaDetection)
}
