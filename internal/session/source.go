// Package session owns the host-side run lifecycle: a data source produces
// per-actuator counts and angles for a time cursor, a fixed-cadence controller
// turns them into transport commands, and a log records every tick for
// persistence and replay.
package session

import (
	"context"
	"sort"
	"time"

	"github.com/neural-prosthetics/neuromotion/internal/decode"
)

// Record is one logged tick: the session clock at sampling time plus the
// vectors produced for it. Never mutated after append.
type Record struct {
	T      time.Duration
	Counts decode.Counts
	Angles decode.Angles
}

// Source produces count and angle vectors for a session clock value. Sources
// never fail a sample wholesale; degraded inputs surface as zero counts.
type Source interface {
	Sample(ctx context.Context, t time.Duration) (decode.Counts, decode.Angles)
}

// LiveSource samples the aggregator over a sliding window ending at the
// cursor.
type LiveSource struct {
	agg    *decode.Aggregator
	window time.Duration
}

// NewLiveSource creates a live source with the given window size.
func NewLiveSource(agg *decode.Aggregator, window time.Duration) *LiveSource {
	return &LiveSource{agg: agg, window: window}
}

// Sample aggregates activity over [t-window, t], clipped at zero for the
// first partial windows.
func (s *LiveSource) Sample(ctx context.Context, t time.Duration) (decode.Counts, decode.Angles) {
	t1 := t - s.window
	if t1 < 0 {
		t1 = 0
	}
	return s.agg.Sample(ctx, t1, t)
}

// RecordedSource replays a pre-loaded, time-sorted table of records by
// nearest-time lookup. Vectors are returned verbatim, no re-mapping.
type RecordedSource struct {
	records   []Record
	actuators int
}

// NewRecordedSource creates a recorded source over the given records. The
// records are sorted by time on load; actuators sizes the zero vectors
// returned when the table is empty.
func NewRecordedSource(records []Record, actuators int) *RecordedSource {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })

	return &RecordedSource{records: sorted, actuators: actuators}
}

// Len returns the number of loaded records.
func (s *RecordedSource) Len() int {
	return len(s.records)
}

// Duration returns the time of the last record, the natural replay length.
func (s *RecordedSource) Duration() time.Duration {
	if len(s.records) == 0 {
		return 0
	}
	return s.records[len(s.records)-1].T
}

// Sample returns the row whose time is closest to t. An exact match wins; a
// tie between neighbors resolves to the earlier row. An empty table yields
// all-zero vectors.
func (s *RecordedSource) Sample(_ context.Context, t time.Duration) (decode.Counts, decode.Angles) {
	if len(s.records) == 0 {
		return make(decode.Counts, s.actuators), make(decode.Angles, s.actuators)
	}

	i := sort.Search(len(s.records), func(i int) bool { return s.records[i].T >= t })
	if i == len(s.records) {
		i = len(s.records) - 1
	} else if i > 0 && t-s.records[i-1].T <= s.records[i].T-t {
		i--
	}

	return s.records[i].Counts.Clone(), s.records[i].Angles.Clone()
}
