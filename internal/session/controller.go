package session

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

// State enumerates the controller lifecycle.
type State int32

const (
	Idle State = iota
	Running
	Paused
	Completed
)

var stateNames = map[State]string{
	Idle:      "idle",
	Running:   "running",
	Paused:    "paused",
	Completed: "completed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Mode selects where samples come from.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeReplay Mode = "replay"
)

type event int

const (
	evStart event = iota
	evPauseResume
	evStop
	evReset
)

// Commander is the transport surface the controller drives. Disconnect homes
// the actuators best-effort before releasing the link and is idempotent.
type Commander interface {
	Connect() error
	Connected() bool
	Send(angles []int) error
	Disconnect() error
}

// LogSink receives the session log at teardown time for persistence. Flush
// failures are warned about, never block teardown.
type LogSink interface {
	Flush(ctx context.Context, records []Record) error
}

// Config is the immutable per-session configuration.
type Config struct {
	Mode     Mode
	Cadence  time.Duration
	Duration time.Duration
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) func(*Controller) {
	return func(c *Controller) {
		c.logger = logger.With(slog.String("component", "session"))
	}
}

// WithStateFunc registers a callback invoked from the control loop on every
// state change. The callback must be quick; it runs inside the loop.
func WithStateFunc(fn func(State)) func(*Controller) {
	return func(c *Controller) {
		c.stateFunc = fn
	}
}

// WithSink sets the persistence sink flushed on live-session teardown.
func WithSink(sink LogSink) func(*Controller) {
	return func(c *Controller) {
		c.sink = sink
	}
}

// Controller is the session state machine. All mutable session state (clock,
// log, transport handle, state) is owned by the goroutine running Run; the
// exported event methods only post to its channel. Ticks execute to
// completion before the next event is considered, so no further
// synchronization is involved.
type Controller struct {
	cfg    Config
	source Source
	link   Commander
	sink   LogSink

	state  atomic.Int32
	clock  time.Duration
	log    *Log
	ticker *time.Ticker

	events    chan event
	stateFunc func(State)
	logger    *slog.Logger
}

// New creates a controller for one session over the given source and
// transport.
func New(cfg Config, source Source, link Commander, options ...func(*Controller)) *Controller {
	c := Controller{
		cfg:    cfg,
		source: source,
		link:   link,
		log:    NewLog(),
		events: make(chan event, 8),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Clock returns the session clock. Meaningful once Run has returned or while
// no tick is in flight.
func (c *Controller) Clock() time.Duration {
	return c.clock
}

// Log returns the session log.
func (c *Controller) Log() *Log {
	return c.log
}

// Start begins the session. A Start while already running or paused is a
// no-op.
func (c *Controller) Start() { c.post(evStart) }

// PauseResume toggles between Running and Paused without touching the clock,
// source, or transport.
func (c *Controller) PauseResume() { c.post(evPauseResume) }

// Stop tears the session down and ends the control loop.
func (c *Controller) Stop() { c.post(evStop) }

// Reset stops the session and zeroes the clock and log.
func (c *Controller) Reset() { c.post(evReset) }

func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	default:
		// Loop already winding down; late events are irrelevant.
	}
}

// Run serves events and ticks until the session ends by Stop, Reset, natural
// completion, or context cancellation. Teardown (home, disconnect, flush)
// always runs exactly once before Run returns. Run is Close in the ownership
// sense: callers must let it return to release the transport.
func (c *Controller) Run(ctx context.Context) error {
	defer c.teardown(ctx)

	for {
		// A nil ticker channel blocks forever, which is exactly what Idle
		// needs.
		var tick <-chan time.Time
		if c.ticker != nil {
			tick = c.ticker.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-c.events:
			switch ev {
			case evStart:
				c.handleStart()
			case evPauseResume:
				c.handlePauseResume()
			case evStop:
				return nil
			case evReset:
				c.handleReset(ctx)
				return nil
			}

		case <-tick:
			if c.State() != Running {
				continue // ticks keep firing while paused, effects do not
			}
			if done := c.tick(ctx); done {
				return nil
			}
		}
	}
}

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
	if c.stateFunc != nil {
		c.stateFunc(s)
	}
}

func (c *Controller) handleStart() {
	if s := c.State(); s == Running || s == Paused {
		c.logger.Debug("start ignored, session already active", slog.String("state", s.String()))
		return
	}

	// Hardware is optional: a failed connect degrades to a headless run.
	if err := c.link.Connect(); err != nil {
		c.logger.Warn("transport unavailable, running headless", slog.String("error", err.Error()))
	}

	c.clock = 0
	c.ticker = time.NewTicker(c.cfg.Cadence)
	c.setState(Running)

	c.logger.Info("session started",
		slog.String("mode", string(c.cfg.Mode)),
		slog.Duration("cadence", c.cfg.Cadence),
		slog.Duration("duration", c.cfg.Duration),
		slog.Bool("hardware", c.link.Connected()))
}

func (c *Controller) handlePauseResume() {
	switch c.State() {
	case Running:
		c.setState(Paused)
		c.logger.Info("session paused", slog.Duration("clock", c.clock))
	case Paused:
		c.setState(Running)
		c.logger.Info("session resumed", slog.Duration("clock", c.clock))
	}
}

// handleReset is a stop followed by zeroing: the captured records are
// persisted first, the same as on any other session end, then the clock and
// log are cleared.
func (c *Controller) handleReset(ctx context.Context) {
	c.flush(ctx)
	c.clock = 0
	c.log.Reset()
	c.logger.Info("session reset")
}

// tick performs one sampling cycle. Returns true when the session has reached
// its configured duration.
func (c *Controller) tick(ctx context.Context) bool {
	counts, angles := c.source.Sample(ctx, c.clock)
	c.log.Append(Record{T: c.clock, Counts: counts, Angles: angles})

	c.clock += c.cfg.Cadence
	if c.clock >= c.cfg.Duration {
		c.setState(Completed)
		c.logger.Info("session completed", slog.Duration("clock", c.clock), slog.Int("records", c.log.Len()))
		return true
	}

	if c.link.Connected() {
		if err := c.link.Send(angles); err != nil {
			c.logger.Warn("send failed, continuing", slog.String("error", err.Error()))
		}
	}

	return false
}

// teardown cancels ticking, homes and releases the transport, and flushes the
// log for live sessions. Idle is always the final state.
func (c *Controller) teardown(ctx context.Context) {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}

	if err := c.link.Disconnect(); err != nil {
		c.logger.Warn("disconnect failed", slog.String("error", err.Error()))
	}

	c.flush(ctx)

	c.setState(Idle)
}

// flush persists the session log for live sessions. A no-op in replay mode,
// without a sink, or once the log has already been flushed and cleared.
func (c *Controller) flush(ctx context.Context) {
	if c.cfg.Mode != ModeLive || c.sink == nil || c.log.Len() == 0 {
		return
	}

	if err := c.sink.Flush(context.WithoutCancel(ctx), c.log.Records()); err != nil {
		c.logger.Warn("flushing session log failed", slog.String("error", err.Error()))
	}
}
