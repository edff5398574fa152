package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"topdock/internal/config"
	"topdock/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the topdock HTTP server",
	Long: `Start polling the foreground window and serve the result over HTTP.

Routes:
  GET /api/health                 liveness
  GET /api/foreground             latest snapshot as JSON
  GET /api/foreground/icon.png    latest icon
  GET /api/foreground/stream      WebSocket stream of changes
  GET /api/icon?path=&size=       one-shot icon extraction`,
	Example: `  # Serve on the default address (127.0.0.1:8765)
  topdock serve

  # Serve on another address with debug logging
  topdock serve --listen 127.0.0.1:9090 --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "address to listen on (default 127.0.0.1:8765)")
	if err := viper.BindPFlag(config.KeyListenAddr, serveCmd.Flags().Lookup("listen")); err != nil {
		panic(err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	logger := application.GetLogger()

	application.EnableHTTP()
	application.AddSink(services.NewLogSink(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Startup(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-application.ServerErrors():
	}

	application.Shutdown(context.Background())
	return serveErr
}
