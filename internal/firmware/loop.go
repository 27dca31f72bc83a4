package firmware

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"time"
)

// WithTickPeriod overrides the interpolation tick period.
func WithTickPeriod(d time.Duration) func(*Loop) {
	return func(l *Loop) {
		l.tickPeriod = d
	}
}

// WithSelfTest enables a one-time sweep of all actuators at boot, after
// homing and before command intake begins.
func WithSelfTest() func(*Loop) {
	return func(l *Loop) {
		l.selfTest = true
	}
}

// WithLoopLogger sets the logger for the loop.
func WithLoopLogger(logger *slog.Logger) func(*Loop) {
	return func(l *Loop) {
		l.logger = logger.With(slog.String("component", "loop"))
	}
}

// Loop runs a Controller against a byte stream: it interleaves non-blocking
// command intake with the fixed-period interpolation tick. Reading the stream
// happens on a feeder goroutine; parsing, target updates, and interpolation
// all run on the loop goroutine, so a command fully lands before the next
// Step reads it.
type Loop struct {
	ctrl *Controller
	rw   io.ReadWriter

	tickPeriod time.Duration
	selfTest   bool

	logger *slog.Logger
}

// NewLoop creates a loop driving ctrl over rw.
func NewLoop(ctrl *Controller, rw io.ReadWriter, options ...func(*Loop)) *Loop {
	l := Loop{
		ctrl:       ctrl,
		rw:         rw,
		tickPeriod: DefaultTickPeriodMs * time.Millisecond,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&l)
	}

	return &l
}

// Run homes the actuators, optionally runs the self-test sweep, then serves
// commands until the context is cancelled or the stream ends.
//
// Cancellation stops command handling and interpolation immediately, but the
// feeder goroutine stays blocked in its pending read until rw is closed or
// reaches end of stream. Callers that need the goroutine released after
// cancelling must also close the stream.
func (l *Loop) Run(ctx context.Context) error {
	l.ctrl.WriteHome()

	if l.selfTest {
		l.sweep()
	}

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(l.rw)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) {
			readErr <- err
		}
	}()

	ticker := time.NewTicker(l.tickPeriod)
	defer ticker.Stop()

	l.logger.Info("command intake started",
		slog.Int("actuators", l.ctrl.Actuators()),
		slog.Duration("tickPeriod", l.tickPeriod))

	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if line == "" {
				continue
			}

			response := l.ctrl.HandleLine(line)
			if _, err := l.rw.Write([]byte(response)); err != nil {
				l.logger.Warn("writing response failed", slog.String("error", err.Error()))
			}

		case <-ticker.C:
			l.ctrl.Step()
		}
	}
}

// sweep walks every actuator to full extension and back to home through the
// interpolator, stepping at the tick period.
func (l *Loop) sweep() {
	l.logger.Info("running self-test sweep")

	for i := range l.ctrl.target {
		l.ctrl.target[i] = l.ctrl.sweepTop()
	}
	l.settle()

	for i := range l.ctrl.target {
		l.ctrl.target[i] = l.ctrl.home
	}
	l.settle()
}

func (l *Loop) settle() {
	for !l.ctrl.Settled() {
		l.ctrl.Step()
		time.Sleep(l.tickPeriod)
	}
}
