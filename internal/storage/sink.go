package storage

import (
	"context"
	"fmt"

	"github.com/neural-prosthetics/neuromotion/internal/session"
)

// Sink adapts a Store and a session ID to the controller's flush interface.
type Sink struct {
	store     *Store
	sessionID int64
}

// NewSink creates a sink writing into the given stored session.
func NewSink(store *Store, sessionID int64) *Sink {
	return &Sink{store: store, sessionID: sessionID}
}

// Flush implements session.LogSink.
func (s *Sink) Flush(ctx context.Context, records []session.Record) error {
	if err := s.store.StoreRecords(ctx, s.sessionID, records); err != nil {
		return fmt.Errorf("storing session %d: %w", s.sessionID, err)
	}
	return nil
}
