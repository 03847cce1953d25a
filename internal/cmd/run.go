package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"resttimer/internal/app"
	"resttimer/internal/ui/gui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the tray application",
	Args:  cobra.NoArgs,
	RunE:  runGUI,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runGUI(cmd *cobra.Command, args []string) error {
	application, logger, cleanup, err := buildApp(app.Options{})
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return gui.Run(ctx, application, logger.Logger)
}
