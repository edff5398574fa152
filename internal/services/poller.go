package services

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"topdock/internal/foreground"
	"topdock/internal/icon"
	"topdock/internal/infrastructure/errors"
	"topdock/internal/infrastructure/logging"
)

// DefaultPollInterval is how often the foreground is sampled
const DefaultPollInterval = 500 * time.Millisecond

// ErrPollerRunning is returned by Start when the loop is already active
var ErrPollerRunning = stderrors.New("poller is already running")

// WindowSource resolves the current foreground window
type WindowSource interface {
	Resolve() foreground.Info
}

// IconSource extracts icons for executables
type IconSource interface {
	Extract(path string, size icon.Size) (*icon.PixelBuffer, error)
}

// PollerConfig holds the poller's tunables
type PollerConfig struct {
	Interval time.Duration
	IconSize icon.Size
}

// Poller samples the foreground window on a fixed cadence and publishes a
// Snapshot to its sinks whenever what it sees changes.
type Poller struct {
	windows WindowSource
	icons   IconSource
	config  PollerConfig
	logger  logging.Logger

	mutex    sync.RWMutex
	sinks    []Sink
	latest   Snapshot
	observed bool
	sequence uint64
	running  bool
	stop     chan struct{}
	done     chan struct{}

	tickMutex sync.Mutex
	now       func() time.Time
}

// NewPoller creates a poller. A non-positive interval means DefaultPollInterval.
func NewPoller(windows WindowSource, icons IconSource, config PollerConfig, logger logging.Logger) *Poller {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultPollInterval
	}

	return &Poller{
		windows: windows,
		icons:   icons,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// AddSink registers a sink for future snapshots
func (p *Poller) AddSink(sink Sink) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.sinks = append(p.sinks, sink)
}

// Latest returns the most recent snapshot and whether any tick has run
func (p *Poller) Latest() (Snapshot, bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.latest, p.observed
}

// Start runs the polling loop in a goroutine until ctx is done or Stop is called
func (p *Poller) Start(ctx context.Context) error {
	p.mutex.Lock()
	if p.running {
		p.mutex.Unlock()
		return ErrPollerRunning
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stop, p.done
	p.mutex.Unlock()

	p.logger.Info("Starting foreground poller",
		"interval", p.config.Interval.String(),
		"icon_size", p.config.IconSize.String(),
	)

	go p.pollingLoop(ctx, stop, done)
	return nil
}

// Stop ends the polling loop and waits for an in-flight tick to finish
func (p *Poller) Stop() {
	p.mutex.Lock()
	if !p.running {
		p.mutex.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	done := p.done
	p.mutex.Unlock()

	<-done
	p.logger.Info("Foreground poller stopped")
}

// pollingLoop runs the main polling loop
func (p *Poller) pollingLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.Tick()

	for {
		select {
		case <-ticker.C:
			p.Tick()
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Tick performs one resolve and extract cycle, publishes the result if it
// differs from the previous tick and returns it.
func (p *Poller) Tick() Snapshot {
	p.tickMutex.Lock()
	defer p.tickMutex.Unlock()

	snapshot := p.capture()

	p.mutex.Lock()
	changed := !p.observed || !snapshot.SameAs(p.latest)
	if changed {
		p.sequence++
		snapshot.Sequence = p.sequence
	} else {
		snapshot.Sequence = p.latest.Sequence
	}
	p.latest = snapshot
	p.observed = true
	sinks := append([]Sink(nil), p.sinks...)
	p.mutex.Unlock()

	if !changed {
		return snapshot
	}

	for _, sink := range sinks {
		sink.Publish(snapshot)
	}
	return snapshot
}

// capture builds a snapshot without touching shared state
func (p *Poller) capture() Snapshot {
	snapshot := Snapshot{
		CapturedAt: p.now(),
		Window:     p.windows.Resolve(),
		IconSize:   p.config.IconSize,
	}

	path, ok := snapshot.Window.Path()
	if !ok {
		return snapshot
	}

	buf, err := p.icons.Extract(path, p.config.IconSize)
	if err != nil {
		snapshot.IconReason = errors.ReasonOf(err).String()
		p.logFailureOnce(err, path)
		return snapshot
	}

	snapshot.Icon = buf
	return snapshot
}

// logFailureOnce logs an extraction failure unless the previous tick already
// reported the same failure for the same path.
func (p *Poller) logFailureOnce(err error, path string) {
	p.mutex.RLock()
	prevPath, _ := p.latest.Window.Path()
	repeated := p.observed && prevPath == path && p.latest.IconReason == errors.ReasonOf(err).String()
	p.mutex.RUnlock()

	if repeated {
		return
	}
	if errors.IsNoIconForPath(err) {
		p.logger.Debug("No icon for executable", "path", path)
		return
	}
	logging.LogError(p.logger, err, "extract", map[string]interface{}{"path": path})
}
