// Package transport drives the serial link to the embedded motion controller.
//
// The link is owned by a single caller between Connect and Disconnect; loss of
// the link degrades the session to a headless run instead of terminating it,
// so Send never returns a hard failure for a missing connection.
package transport

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.bug.st/serial"

	"github.com/neural-prosthetics/neuromotion/internal/protocol"
)

const (
	// DefaultBaudRate matches the firmware's fixed serial configuration.
	DefaultBaudRate = 115200

	// DefaultSettleDelay is how long to wait after opening the port before
	// the first command. Opening the port resets some boards; commands sent
	// during the reset are lost.
	DefaultSettleDelay = 2 * time.Second

	responseTimeout = 250 * time.Millisecond
)

// Porter is the minimal serial port surface the client needs. The abstraction
// exists so tests can run against an in-memory port.
type Porter interface {
	io.ReadWriteCloser
}

// TimeoutPorter is an optional extension for ports that support read
// timeouts. Real ports implement it; reading responses and draining startup
// noise degrade gracefully without it.
type TimeoutPorter interface {
	Porter
	SetReadTimeout(t time.Duration) error
}

// Opener opens a serial port by name. Injectable for testing.
type Opener func(name string, baudRate int) (Porter, error)

// OpenSerial is the production Opener backed by go.bug.st/serial.
func OpenSerial(name string, baudRate int) (Porter, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return serial.Open(name, mode)
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) func(*Client) {
	return func(c *Client) {
		c.logger = logger.With(slog.String("component", "transport"))
	}
}

// WithOpener replaces the port opener.
func WithOpener(open Opener) func(*Client) {
	return func(c *Client) {
		c.open = open
	}
}

// WithBaudRate overrides the default baud rate.
func WithBaudRate(baudRate int) func(*Client) {
	return func(c *Client) {
		c.baudRate = baudRate
	}
}

// WithSettleDelay overrides the post-open settle delay.
func WithSettleDelay(d time.Duration) func(*Client) {
	return func(c *Client) {
		c.settleDelay = d
	}
}

// Client frames angle vectors as command lines and writes them to the port.
type Client struct {
	portName string
	baudRate int

	actuators   int
	settleDelay time.Duration

	open   Opener
	port   Porter
	reader *bufio.Reader

	logger *slog.Logger
}

// NewClient creates a client for a port carrying commands for the given
// number of actuators. The port is not opened until Connect.
func NewClient(portName string, actuators int, options ...func(*Client)) *Client {
	c := Client{
		portName:    portName,
		baudRate:    DefaultBaudRate,
		actuators:   actuators,
		settleDelay: DefaultSettleDelay,
		open:        OpenSerial,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// Connected reports whether the port is open.
func (c *Client) Connected() bool {
	return c.port != nil
}

// Connect opens the port, waits out the settle delay, and discards any
// unsolicited startup bytes. Calling Connect while connected is a no-op.
func (c *Client) Connect() error {
	if c.port != nil {
		return nil
	}

	port, err := c.open(c.portName, c.baudRate)
	if err != nil {
		return fmt.Errorf("opening port %s: %w", c.portName, err)
	}

	c.port = port
	c.reader = bufio.NewReader(port)

	time.Sleep(c.settleDelay)
	c.drainStartup()

	c.logger.Info("connected", slog.String("port", c.portName), slog.Int("baudRate", c.baudRate))
	return nil
}

// drainStartup reads and discards whatever the firmware printed while
// booting, so the first response read lines up with the first command.
func (c *Client) drainStartup() {
	tp, ok := c.port.(TimeoutPorter)
	if !ok {
		return
	}

	if err := tp.SetReadTimeout(50 * time.Millisecond); err != nil {
		return
	}

	buf := make([]byte, 256)
	for {
		n, err := tp.Read(buf)
		if n == 0 || err != nil {
			break
		}
	}

	c.reader.Reset(c.port)
	_ = tp.SetReadTimeout(responseTimeout)
}

// Send frames the angle vector and writes it to the port. Each value is
// clamped before framing; the firmware re-validates on its side. Sending
// while disconnected logs a warning and does nothing.
func (c *Client) Send(angles []int) error {
	if c.port == nil {
		c.logger.Warn("send skipped, not connected")
		return nil
	}
	if len(angles) != c.actuators {
		return fmt.Errorf("%w: expected %d values, got %d", protocol.ErrFormat, c.actuators, len(angles))
	}

	command := protocol.FormatCommand(angles)
	if _, err := c.port.Write([]byte(command)); err != nil {
		return fmt.Errorf("writing command: %w", err)
	}

	c.readResponse()
	return nil
}

// readResponse consumes one response line if the port can time out reads.
// A missing or error response is logged, never surfaced: command delivery is
// best-effort by design of the session loop.
func (c *Client) readResponse() {
	if _, ok := c.port.(TimeoutPorter); !ok {
		return
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return // timed out or link noise, next command resynchronizes
	}

	if !protocol.IsSuccessResponse(line) {
		c.logger.Warn("controller rejected command", slog.String("response", line))
	}
}

// Home commands every actuator to the minimum angle.
func (c *Client) Home() error {
	home := make([]int, c.actuators)
	for i := range home {
		home[i] = protocol.MinAngle
	}
	return c.Send(home)
}

// Disconnect homes the actuators best-effort and releases the port. Safe to
// call when already disconnected.
func (c *Client) Disconnect() error {
	if c.port == nil {
		return nil
	}

	if err := c.Home(); err != nil {
		c.logger.Warn("homing before disconnect failed", slog.String("error", err.Error()))
	}

	err := c.port.Close()
	c.port = nil
	c.reader = nil

	if err != nil {
		return fmt.Errorf("closing port: %w", err)
	}

	c.logger.Info("disconnected", slog.String("port", c.portName))
	return nil
}
