package neural

import (
	"context"
	"testing"
	"time"
)

func TestSynthetic_Deterministic(t *testing.T) {
	s := NewSynthetic()
	ctx := context.Background()

	first, err := s.Timestamps(ctx, 3, 0, time.Second)
	if err != nil {
		t.Fatalf("Timestamps() = %v", err)
	}
	second, err := s.Timestamps(ctx, 3, 0, time.Second)
	if err != nil {
		t.Fatalf("Timestamps() = %v", err)
	}

	if len(first) == 0 {
		t.Fatal("no spikes over a one second window at the default rate")
	}
	if len(first) != len(second) {
		t.Fatalf("repeated query returned %d then %d spikes", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("spike %d moved between queries: %v then %v", i, first[i], second[i])
		}
	}
}

func TestSynthetic_SpikesWithinWindow(t *testing.T) {
	s := NewSynthetic()

	t1, t2 := 500*time.Millisecond, 1500*time.Millisecond
	spikes, err := s.Timestamps(context.Background(), 0, t1, t2)
	if err != nil {
		t.Fatalf("Timestamps() = %v", err)
	}

	for _, spike := range spikes {
		if spike < t1 || spike > t2 {
			t.Errorf("spike at %v outside window [%v, %v]", spike, t1, t2)
		}
	}
}

func TestSynthetic_ChannelsDiffer(t *testing.T) {
	s := NewSynthetic()
	ctx := context.Background()

	a, err := s.Timestamps(ctx, 0, 0, 2*time.Second)
	if err != nil {
		t.Fatalf("Timestamps() = %v", err)
	}
	b, err := s.Timestamps(ctx, 4, 0, 2*time.Second)
	if err != nil {
		t.Fatalf("Timestamps() = %v", err)
	}

	// Phase-shifted modulation keeps channel trains from coinciding.
	if len(a) == len(b) {
		same := true
		for i := range a {
			if a[i] != b[i] {
				same = false
				break
			}
		}
		if same {
			t.Error("channels 0 and 4 produced identical spike trains")
		}
	}
}

func TestSynthetic_RateOverride(t *testing.T) {
	slow := NewSynthetic(WithRate(0, 10))
	fast := NewSynthetic(WithRate(0, 500))
	ctx := context.Background()

	a, err := slow.Timestamps(ctx, 0, 0, time.Second)
	if err != nil {
		t.Fatalf("Timestamps() = %v", err)
	}
	b, err := fast.Timestamps(ctx, 0, 0, time.Second)
	if err != nil {
		t.Fatalf("Timestamps() = %v", err)
	}

	if len(a) >= len(b) {
		t.Errorf("10 Hz channel fired %d spikes, 500 Hz channel %d", len(a), len(b))
	}
}

func TestSynthetic_DeadChannelFails(t *testing.T) {
	s := NewSynthetic(WithDeadChannel(7))
	ctx := context.Background()

	if _, err := s.Timestamps(ctx, 7, 0, time.Second); err == nil {
		t.Error("dead channel query succeeded")
	}
	if _, err := s.Timestamps(ctx, 6, 0, time.Second); err != nil {
		t.Errorf("healthy channel query failed: %v", err)
	}
}

func TestSynthetic_InvalidWindow(t *testing.T) {
	s := NewSynthetic()

	if _, err := s.Timestamps(context.Background(), 0, time.Second, 0); err == nil {
		t.Error("inverted window accepted")
	}
}

func TestSynthetic_CancelledContext(t *testing.T) {
	s := NewSynthetic()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Timestamps(ctx, 0, 0, time.Second); err == nil {
		t.Error("cancelled context accepted")
	}
}
