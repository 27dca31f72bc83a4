// Command firmware runs the embedded-side motion controller loop against a
// serial port, or against stdin/stdout for loopback testing without hardware.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"

	"github.com/neural-prosthetics/neuromotion/internal/firmware"
	"github.com/neural-prosthetics/neuromotion/internal/protocol"
)

func main() {
	var (
		portName  string
		baudRate  int
		actuators int
		stepLimit int
		tick      time.Duration
		gain      float64
		home      int
		selfTest  bool
		verbose   bool
	)

	flag.StringVar(&portName, "p", "", "Serial port to serve (stdin/stdout when empty)")
	flag.IntVar(&baudRate, "b", 115200, "Baud rate")
	flag.IntVar(&actuators, "n", 5, "Number of actuators")
	flag.IntVar(&stepLimit, "step", firmware.DefaultStepLimit, "Maximum angle change per interpolation tick")
	flag.DurationVar(&tick, "tick", firmware.DefaultTickPeriodMs*time.Millisecond, "Interpolation tick period")
	flag.Float64Var(&gain, "gain", 1, "Scale applied to incoming angle values before clamping")
	flag.IntVar(&home, "home", protocol.MinAngle, "Power-up home angle")
	flag.BoolVar(&selfTest, "selftest", false, "Run a sweep of all actuators at boot")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	stream, err := openStream(portName, baudRate)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ctrl := firmware.NewController(actuators, servoLog{logger},
		firmware.WithStepLimit(stepLimit),
		firmware.WithGain(gain),
		firmware.WithHome(home),
		firmware.WithLogger(logger))

	options := []func(*firmware.Loop){
		firmware.WithTickPeriod(tick),
		firmware.WithLoopLogger(logger),
	}
	if selfTest {
		options = append(options, firmware.WithSelfTest())
	}

	if err := firmware.NewLoop(ctrl, stream, options...).Run(ctx); err != nil {
		logger.Error(err.Error())
		cancel()
		os.Exit(1)
	}
}

// openStream opens the command byte stream: a serial port, or the process
// stdio when no port is given.
func openStream(portName string, baudRate int) (io.ReadWriter, error) {
	if portName == "" {
		return stdio{}, nil
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return serial.Open(portName, mode)
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// servoLog stands in for PWM output in the simulated build.
type servoLog struct {
	logger *slog.Logger
}

func (s servoLog) WriteAngle(actuator, angle int) error {
	s.logger.Debug("servo", slog.Int("actuator", actuator), slog.Int("angle", angle))
	return nil
}
