package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"topdock/internal/api"
	"topdock/internal/config"
	"topdock/internal/foreground"
	"topdock/internal/icon"
	"topdock/internal/infrastructure/errors"
	"topdock/internal/infrastructure/logging"
	"topdock/internal/platform"
	"topdock/internal/services"
)

const (
	// shutdownTimeout bounds how long Shutdown waits for the HTTP server to drain
	shutdownTimeout = 10 * time.Second
)

// Options holds the App's dependencies. Nil fields get production defaults.
type Options struct {
	Config *config.Config
	API    platform.API
	Fs     afero.Fs
	Logger logging.Logger
}

// App wires the OS layer, resolver, extractor, poller and sinks together
type App struct {
	ctx       context.Context
	config    config.Config
	fs        afero.Fs
	logger    logging.Logger
	resolver  *foreground.Resolver
	extractor *icon.Extractor
	poller    *services.Poller
	server    *api.Server
	serverErr chan error
	retry     *errors.RetryConfig
}

// NewApp creates a new App with dependency injection
func NewApp(opts Options) (*App, error) {
	cfg := config.DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Initialize logger first (required by all other components)
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(cfg.LoggerOptions())
	}

	osAPI := opts.API
	if osAPI == nil {
		osAPI = platform.NewAPI()
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	errors.SetRetryLogger(errors.NewLoggerBridge(logger))

	resolver := foreground.NewResolver(osAPI, fs, logger)
	extractor := icon.NewExtractor(osAPI, logger)
	poller := services.NewPoller(resolver, extractor, services.PollerConfig{
		Interval: cfg.PollInterval,
		IconSize: cfg.Size(),
	}, logger)

	return &App{
		config:    cfg,
		fs:        fs,
		logger:    logger,
		resolver:  resolver,
		extractor: extractor,
		poller:    poller,
		retry:     errors.DefaultRetryConfig(),
	}, nil
}

// AddSink registers a sink for foreground changes
func (a *App) AddSink(sink services.Sink) {
	a.poller.AddSink(sink)
}

// EnableHTTP creates the API server and subscribes it to the poller. It is
// served from Startup.
func (a *App) EnableHTTP() *api.Server {
	if a.server == nil {
		a.server = api.NewServer(a.poller, a.extractor, a.fs, a.logger)
		a.poller.AddSink(a.server)
	}
	return a.server
}

// Startup starts polling and, when enabled, the HTTP server
func (a *App) Startup(ctx context.Context) error {
	start := time.Now()
	a.ctx = ctx

	if err := a.poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}

	if a.server != nil {
		a.serverErr = make(chan error, 1)
		go func() {
			a.serverErr <- a.server.Start(a.config.ListenAddr)
		}()
	}

	logging.LogOperation(a.logger, "startup", time.Since(start), map[string]interface{}{
		"poll_interval": a.config.PollInterval.String(),
		"icon_size":     a.config.IconSize,
		"http":          a.server != nil,
	})
	return nil
}

// ServerErrors reports a failure of the HTTP server. It is nil when HTTP is
// not enabled or Startup has not run.
func (a *App) ServerErrors() <-chan error {
	return a.serverErr
}

// Shutdown is called at application termination
func (a *App) Shutdown(ctx context.Context) {
	a.logger.Info("Starting application shutdown sequence")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	// Stop polling first so no snapshot is published to a closed server
	a.poller.Stop()

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("HTTP server did not shut down cleanly", "error", err)
		}
	}

	a.logger.Info("Application shutdown completed")
}

// CurrentForeground resolves the foreground window once
func (a *App) CurrentForeground() foreground.Info {
	return a.resolver.Resolve()
}

// ExtractIcon checks that path exists and extracts its icon, retrying the
// transient GDI failures
func (a *App) ExtractIcon(ctx context.Context, path string, size icon.Size) (*icon.PixelBuffer, error) {
	stat, err := a.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot extract icon: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("cannot extract icon: %s is a directory", path)
	}

	var buf *icon.PixelBuffer
	err = errors.WithRetryContext(ctx, a.retry, func() error {
		var extractErr error
		buf, extractErr = a.extractor.Extract(path, size)
		return extractErr
	}, "icon extraction")
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Poller returns the foreground poller
func (a *App) Poller() *services.Poller {
	return a.poller
}

// Config returns the effective configuration
func (a *App) Config() config.Config {
	return a.config
}

// GetLogger returns the application's structured logger
func (a *App) GetLogger() logging.Logger {
	return a.logger
}
