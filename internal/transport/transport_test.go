package transport

import (
	"errors"
	"strings"
	"testing"
)

// memPort is an in-memory Porter capturing everything written to it. It does
// not implement TimeoutPorter, so the client skips response reads.
type memPort struct {
	written  strings.Builder
	closed   bool
	closeErr error
	writeErr error
}

func (p *memPort) Read([]byte) (int, error) { return 0, errors.New("no data") }

func (p *memPort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.written.WriteString(string(b))
}

func (p *memPort) Close() error {
	p.closed = true
	return p.closeErr
}

func newTestClient(port *memPort, actuators int) *Client {
	return NewClient("mem0", actuators,
		WithSettleDelay(0),
		WithOpener(func(string, int) (Porter, error) { return port, nil }))
}

func TestClient_SendFramesAndClamps(t *testing.T) {
	port := &memPort{}
	c := newTestClient(port, 5)

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if err := c.Send([]int{30, -10, 200, 0, 180}); err != nil {
		t.Fatalf("Send() = %v", err)
	}

	if got, want := port.written.String(), "30,0,180,0,180\n"; got != want {
		t.Errorf("wire = %q, want %q", got, want)
	}
}

func TestClient_SendWhileDisconnectedIsNoOp(t *testing.T) {
	c := newTestClient(&memPort{}, 5)

	if err := c.Send([]int{1, 2, 3, 4, 5}); err != nil {
		t.Errorf("Send() while disconnected = %v, want nil", err)
	}
	if c.Connected() {
		t.Error("client reports connected without Connect")
	}
}

func TestClient_SendRejectsWrongLength(t *testing.T) {
	port := &memPort{}
	c := newTestClient(port, 5)

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if err := c.Send([]int{1, 2, 3}); err == nil {
		t.Fatal("Send() with 3 values for 5 actuators succeeded")
	}
	if port.written.Len() != 0 {
		t.Errorf("wire = %q, want nothing written", port.written.String())
	}
}

func TestClient_ConnectIsIdempotent(t *testing.T) {
	opens := 0
	c := NewClient("mem0", 2,
		WithSettleDelay(0),
		WithOpener(func(string, int) (Porter, error) {
			opens++
			return &memPort{}, nil
		}))

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if err := c.Connect(); err != nil {
		t.Fatalf("second Connect() = %v", err)
	}
	if opens != 1 {
		t.Errorf("port opened %d times, want 1", opens)
	}
}

func TestClient_ConnectFailureSurfaces(t *testing.T) {
	openErr := errors.New("device busy")
	c := NewClient("mem0", 2,
		WithSettleDelay(0),
		WithOpener(func(string, int) (Porter, error) { return nil, openErr }))

	err := c.Connect()
	if !errors.Is(err, openErr) {
		t.Fatalf("Connect() = %v, want wrapped %v", err, openErr)
	}
	if c.Connected() {
		t.Error("client reports connected after failed open")
	}
}

func TestClient_DisconnectHomesThenCloses(t *testing.T) {
	port := &memPort{}
	c := newTestClient(port, 3)

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect() = %v", err)
	}

	if got, want := port.written.String(), "0,0,0\n"; got != want {
		t.Errorf("wire = %q, want home command %q", got, want)
	}
	if !port.closed {
		t.Error("port not closed")
	}
	if c.Connected() {
		t.Error("client still reports connected")
	}
}

func TestClient_DisconnectIsIdempotent(t *testing.T) {
	port := &memPort{}
	c := newTestClient(port, 3)

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect() = %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Errorf("second Disconnect() = %v, want nil", err)
	}
}

func TestClient_DisconnectClosesEvenWhenHomingFails(t *testing.T) {
	port := &memPort{writeErr: errors.New("wire pulled")}
	c := newTestClient(port, 3)

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect() = %v", err)
	}
	if !port.closed {
		t.Error("port not closed after homing failure")
	}
}

func TestClient_HomeSendsMinimumAngles(t *testing.T) {
	port := &memPort{}
	c := newTestClient(port, 5)

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if err := c.Home(); err != nil {
		t.Fatalf("Home() = %v", err)
	}
	if got, want := port.written.String(), "0,0,0,0,0\n"; got != want {
		t.Errorf("wire = %q, want %q", got, want)
	}
}
