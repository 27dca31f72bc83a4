// Package firmware implements the embedded side of the motion link: command
// intake over the line protocol and bounded-rate interpolation that decouples
// actuator motion from command arrival jitter.
package firmware

import (
	"io"
	"log/slog"

	"github.com/neural-prosthetics/neuromotion/internal/protocol"
)

const (
	// DefaultStepLimit is the maximum change in a current angle per
	// interpolation tick, in degrees.
	DefaultStepLimit = 5

	// DefaultTickPeriodMs is the interpolation period in milliseconds.
	DefaultTickPeriodMs = 15
)

// ServoWriter receives interpolated angles as they change. Implementations
// drive PWM hardware, a simulator, or a test recorder.
type ServoWriter interface {
	WriteAngle(actuator, angle int) error
}

// NopServos discards written angles.
type NopServos struct{}

func (NopServos) WriteAngle(int, int) error { return nil }

// WithStepLimit overrides the per-tick step limit.
func WithStepLimit(limit int) func(*Controller) {
	return func(c *Controller) {
		c.stepLimit = limit
	}
}

// WithGain applies a multiplicative scale to every incoming angle value
// before clamping. The link convention here is direct 0-180 values end to
// end (gain 1); boards wired for quarter-range input run with gain 4.
func WithGain(gain float64) func(*Controller) {
	return func(c *Controller) {
		c.gain = gain
	}
}

// WithHome overrides the power-up angle for all actuators.
func WithHome(angle int) func(*Controller) {
	return func(c *Controller) {
		c.home = protocol.Clamp(angle)
	}
}

// WithLogger sets the logger for the controller.
func WithLogger(logger *slog.Logger) func(*Controller) {
	return func(c *Controller) {
		c.logger = logger.With(slog.String("component", "motion"))
	}
}

// Controller tracks per-actuator current and target angles. Targets are set
// atomically by valid command lines; current angles advance toward targets at
// a bounded rate, one step per interpolation tick. Single-threaded: the loop
// that feeds HandleLine is the loop that calls Step.
type Controller struct {
	current []int
	target  []int

	stepLimit int
	gain      float64
	home      int

	servos ServoWriter
	logger *slog.Logger
}

// NewController creates a controller for n actuators, all initialized to the
// home angle so attachment does not cause an uncommanded jump.
func NewController(n int, servos ServoWriter, options ...func(*Controller)) *Controller {
	c := Controller{
		current:   make([]int, n),
		target:    make([]int, n),
		stepLimit: DefaultStepLimit,
		gain:      1,
		home:      protocol.MinAngle,
		servos:    servos,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&c)
	}

	for i := range c.current {
		c.current[i] = c.home
		c.target[i] = c.home
	}

	return &c
}

// Actuators returns the number of actuators under control.
func (c *Controller) Actuators() int {
	return len(c.current)
}

// Targets returns a copy of the target angles.
func (c *Controller) Targets() []int {
	out := make([]int, len(c.target))
	copy(out, c.target)
	return out
}

// Current returns a copy of the current angles.
func (c *Controller) Current() []int {
	out := make([]int, len(c.current))
	copy(out, c.current)
	return out
}

// Settled reports whether every actuator has reached its target.
func (c *Controller) Settled() bool {
	for i := range c.current {
		if c.current[i] != c.target[i] {
			return false
		}
	}
	return true
}

// HandleLine processes one received command line (terminator stripped) and
// returns the response line to send back. A malformed line leaves every
// target untouched; a valid line scales, clamps, and installs all n targets.
func (c *Controller) HandleLine(line string) string {
	values, err := protocol.ParseCommand(line, len(c.target))
	if err != nil {
		c.logger.Warn("rejecting command", slog.String("line", line), slog.String("error", err.Error()))
		return protocol.FormatResponse(err)
	}

	for i, v := range values {
		c.target[i] = protocol.ClampRound(float64(v) * c.gain)
	}

	return protocol.FormatResponse(nil)
}

// Step advances each moving actuator one bounded step toward its target and
// writes the new angle out. With no further commands, an actuator reaches its
// target in ceil(|delta|/stepLimit) ticks and never overshoots.
func (c *Controller) Step() {
	for i := range c.current {
		delta := c.target[i] - c.current[i]
		if delta == 0 {
			continue
		}

		if delta > c.stepLimit {
			delta = c.stepLimit
		} else if delta < -c.stepLimit {
			delta = -c.stepLimit
		}

		c.current[i] += delta
		if err := c.servos.WriteAngle(i, c.current[i]); err != nil {
			c.logger.Warn("servo write failed", slog.Int("actuator", i), slog.String("error", err.Error()))
		}
	}
}

// sweepTop is the far end of the boot self-test sweep.
func (c *Controller) sweepTop() int {
	return protocol.MaxAngle
}

// WriteHome forces every actuator to the home angle immediately, bypassing
// interpolation. Used at power-up before the servos are enabled.
func (c *Controller) WriteHome() {
	for i := range c.current {
		c.current[i] = c.home
		c.target[i] = c.home
		if err := c.servos.WriteAngle(i, c.home); err != nil {
			c.logger.Warn("servo write failed", slog.Int("actuator", i), slog.String("error", err.Error()))
		}
	}
}
