// Package neural defines the contract against the spike acquisition backend.
//
// The backend itself (hardware interface, filtering, thresholding) is an
// external collaborator; this package only models its query surface plus a
// synthetic stand-in for headless runs.
package neural

import (
	"context"
	"time"
)

// SpikeSource provides detected spike timestamps for a single channel within
// a time interval. Both bounds are relative to the start of the recording and
// the interval is closed: [t1, t2].
type SpikeSource interface {
	// Timestamps returns the spike times observed on channel between t1 and t2
	// inclusive, in ascending order. An error means the channel's data is
	// unavailable for this query; callers are expected to treat that as a zero
	// contribution, not as a fatal condition.
	Timestamps(ctx context.Context, channel int, t1, t2 time.Duration) ([]time.Duration, error)
}
