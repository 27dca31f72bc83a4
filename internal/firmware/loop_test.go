package firmware

import (
	"bufio"
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

// duplex is the host side of an in-memory serial link: the loop reads from
// one pipe and writes responses into the other.
type duplex struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (d duplex) Read(b []byte) (int, error)  { return d.r.Read(b) }
func (d duplex) Write(b []byte) (int, error) { return d.w.Write(b) }

// chanServos publishes every servo write, letting tests observe motion from
// outside the loop goroutine.
type chanServos struct {
	writes chan [2]int
}

func (s chanServos) WriteAngle(actuator, angle int) error {
	s.writes <- [2]int{actuator, angle}
	return nil
}

func TestLoop_CommandResponseAndMotion(t *testing.T) {
	hostOut, loopIn := io.Pipe() // host writes commands
	loopOut, hostIn := io.Pipe() // loop writes responses

	servos := chanServos{writes: make(chan [2]int, 256)}
	ctrl := NewController(2, servos)
	loop := NewLoop(ctrl, duplex{r: hostOut, w: hostIn}, WithTickPeriod(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	responses := bufio.NewReader(loopOut)

	if _, err := loopIn.Write([]byte("90,45\n")); err != nil {
		t.Fatalf("writing command: %v", err)
	}
	line, err := responses.ReadString('\n')
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	if line != "OK\n" {
		t.Errorf("response = %q, want OK", line)
	}

	if _, err := loopIn.Write([]byte("90\n")); err != nil {
		t.Fatalf("writing command: %v", err)
	}
	line, err = responses.ReadString('\n')
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	if !strings.HasPrefix(line, "ERROR:") {
		t.Errorf("response = %q, want error line", line)
	}

	// With a 1ms tick, 90 degrees at step 5 settles well within the deadline.
	reached := map[int]int{}
	deadline := time.After(2 * time.Second)
	for reached[0] != 90 || reached[1] != 45 {
		select {
		case w := <-servos.writes:
			reached[w[0]] = w[1]
		case <-deadline:
			t.Fatalf("actuators never converged, last writes = %v", reached)
		}
	}

	cancel()
	loopIn.Close()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v", err)
	}
}

func TestLoop_StreamEndStopsLoop(t *testing.T) {
	hostOut, loopIn := io.Pipe()
	loopOut, hostIn := io.Pipe()

	ctrl := NewController(1, NopServos{})
	loop := NewLoop(ctrl, duplex{r: hostOut, w: hostIn}, WithTickPeriod(time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	go io.Copy(io.Discard, loopOut)

	loopIn.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on stream end")
	}
}
