package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/neural-prosthetics/neuromotion/internal/decode"
	"github.com/neural-prosthetics/neuromotion/internal/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s := New(filepath.Join(t.TempDir(), "session.sqlite"))
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() = %v", err)
		}
	})
	return s
}

func TestStore_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateSession(ctx, "live", map[string]any{"cadence_ms": 100})
	if err != nil {
		t.Fatalf("CreateSession() = %v", err)
	}

	records := []session.Record{
		{T: 0, Counts: decode.Counts{10, 20}, Angles: decode.Angles{170, 160}},
		{T: 100 * time.Millisecond, Counts: decode.Counts{30, 40}, Angles: decode.Angles{150, 140}},
		{T: 200 * time.Millisecond, Counts: decode.Counts{0, 0}, Angles: decode.Angles{180, 180}},
	}
	if err := s.StoreRecords(ctx, id, records); err != nil {
		t.Fatalf("StoreRecords() = %v", err)
	}

	info, err := s.Session(ctx, id)
	if err != nil {
		t.Fatalf("Session() = %v", err)
	}
	if info.Mode != "live" {
		t.Errorf("mode = %q, want live", info.Mode)
	}
	if info.Config == nil || *info.Config == "" {
		t.Error("config not stored")
	}

	got, err := s.SessionRecords(ctx, id)
	if err != nil {
		t.Fatalf("SessionRecords() = %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}
	for i, want := range records {
		if got[i].T != want.T {
			t.Errorf("record %d time = %v, want %v", i, got[i].T, want.T)
		}
		for j := range want.Counts {
			if got[i].Counts[j] != want.Counts[j] {
				t.Errorf("record %d count %d = %d, want %d", i, j, got[i].Counts[j], want.Counts[j])
			}
			if got[i].Angles[j] != want.Angles[j] {
				t.Errorf("record %d angle %d = %d, want %d", i, j, got[i].Angles[j], want.Angles[j])
			}
		}
	}
}

func TestStore_SessionsOrderedByStart(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.CreateSession(ctx, "live", nil)
	if err != nil {
		t.Fatalf("CreateSession() = %v", err)
	}
	second, err := s.CreateSession(ctx, "replay", "{}")
	if err != nil {
		t.Fatalf("CreateSession() = %v", err)
	}

	sessions, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions() = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != first || sessions[1].ID != second {
		t.Errorf("session order = %d, %d, want %d, %d", sessions[0].ID, sessions[1].ID, first, second)
	}
}

func TestStore_StoreRecordsEmptyIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateSession(ctx, "live", nil)
	if err != nil {
		t.Fatalf("CreateSession() = %v", err)
	}
	if err := s.StoreRecords(ctx, id, nil); err != nil {
		t.Fatalf("StoreRecords(nil) = %v", err)
	}

	got, err := s.SessionRecords(ctx, id)
	if err != nil {
		t.Fatalf("SessionRecords() = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records, want 0", len(got))
	}
}

func TestSink_FlushWritesThrough(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateSession(ctx, "live", nil)
	if err != nil {
		t.Fatalf("CreateSession() = %v", err)
	}

	sink := NewSink(s, id)
	records := []session.Record{
		{T: 0, Counts: decode.Counts{5}, Angles: decode.Angles{175}},
	}
	if err := sink.Flush(ctx, records); err != nil {
		t.Fatalf("Flush() = %v", err)
	}

	got, err := s.SessionRecords(ctx, id)
	if err != nil {
		t.Fatalf("SessionRecords() = %v", err)
	}
	if len(got) != 1 || got[0].Counts[0] != 5 || got[0].Angles[0] != 175 {
		t.Errorf("stored records = %+v, want the flushed record", got)
	}
}
