package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"topdock/internal/services"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the foreground window and log every change",
	Example: `  # Log foreground changes as JSON
  topdock run

  # Poll every second with readable output
  topdock run --poll-interval 1s --log-pretty`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	application.AddSink(services.NewLogSink(application.GetLogger()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Startup(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	application.Shutdown(context.Background())
	return nil
}
