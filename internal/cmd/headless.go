package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"resttimer/internal/app"
	"resttimer/internal/ui/term"
)

var (
	headlessTickEvery     time.Duration
	headlessIdleLockAfter time.Duration
)

var headlessCmd = &cobra.Command{
	Use:   "headless",
	Short: "Run the cycle in the terminal without a GUI",
	Long: `Run the work/break cycle and print its events to the terminal.

Interrupting during a break is refused once; interrupt again to quit anyway.
SIGTERM always stops the cycle. Under systemd the service reports READY and
STOPPING through sd_notify.`,
	Args: cobra.NoArgs,
	RunE: runHeadless,
}

func init() {
	headlessCmd.Flags().DurationVar(&headlessTickEvery, "status-every", time.Minute, "How often to print the remaining time (0 prints every second)")
	headlessCmd.Flags().DurationVar(&headlessIdleLockAfter, "idle-lock-after", 0,
		"Treat this much input idle time as a screen lock when no lock signals exist; "+
			"the next input then restarts the work period from zero (0 disables)")
	rootCmd.AddCommand(headlessCmd)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	sink := term.New(out, term.Options{TickEvery: headlessTickEvery})

	application, logger, cleanup, err := buildApp(app.Options{
		Sink:          sink,
		IdleLockAfter: headlessIdleLockAfter,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	return superviseHeadless(cmd.Context(), application, signals, out, logger.Logger)
}

// superviseHeadless runs application until a signal is honoured or ctx ends.
func superviseHeadless(ctx context.Context, application *app.App, signals <-chan os.Signal, out io.Writer, logger zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()
	notifySystemd(logger, daemon.SdNotifyReady)

	refused := false
	var refusedEpoch uint64
	for {
		select {
		case err := <-done:
			return err
		case sig := <-signals:
			snapshot := application.Keeper().Snapshot()
			again := refused && refusedEpoch == snapshot.Epoch
			if sig == os.Interrupt && !again && !application.QuitRequested() {
				refused = true
				refusedEpoch = snapshot.Epoch
				fmt.Fprintln(out, "Break in progress, interrupt again to quit anyway.")
				continue
			}
			logger.Info().Str("signal", sig.String()).Msg("stopping")
			notifySystemd(logger, daemon.SdNotifyStopping)
			cancel()
			return <-done
		}
	}
}

func notifySystemd(logger zerolog.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logger.Warn().Err(err).Msg("sd_notify failed")
		return
	}
	if sent {
		logger.Debug().Str("state", state).Msg("sd_notify sent")
	}
}
