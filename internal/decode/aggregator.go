package decode

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/neural-prosthetics/neuromotion/internal/neural"
)

// WithLogger sets the logger for the aggregator.
func WithLogger(logger *slog.Logger) func(*Aggregator) {
	return func(a *Aggregator) {
		a.logger = logger.With(slog.String("component", "aggregator"))
	}
}

// WithIgnoredChannels excludes channels from every actuator regardless of
// assignment.
func WithIgnoredChannels(channels ...int) func(*Aggregator) {
	return func(a *Aggregator) {
		for _, ch := range channels {
			a.ignored[ch] = struct{}{}
		}
	}
}

// Aggregator sums per-channel spike activity into per-actuator counts over a
// time window and maps the counts to angles. A channel whose query fails
// contributes zero; the window as a whole never fails.
type Aggregator struct {
	source     neural.SpikeSource
	assignment Assignment
	mapper     Mapper

	ignored map[int]struct{}
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator over the given spike source.
func NewAggregator(source neural.SpikeSource, assignment Assignment, mapper Mapper, options ...func(*Aggregator)) *Aggregator {
	a := Aggregator{
		source:     source,
		assignment: assignment,
		mapper:     mapper,
		ignored:    make(map[int]struct{}),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&a)
	}

	return &a
}

// Actuators returns the number of actuators the aggregator produces counts
// for.
func (a *Aggregator) Actuators() int {
	return a.assignment.Actuators()
}

// Sample sums spike counts over the closed window [t1, t2] for every actuator
// and maps them to angles. The source is queried once per assigned channel;
// acquisition errors are logged and skipped.
func (a *Aggregator) Sample(ctx context.Context, t1, t2 time.Duration) (Counts, Angles) {
	counts := make(Counts, a.assignment.Actuators())

	for actuator, channels := range a.assignment {
		for _, ch := range channels {
			if _, ok := a.ignored[ch]; ok {
				continue
			}

			spikes, err := a.source.Timestamps(ctx, ch, t1, t2)
			if err != nil {
				a.logger.Warn("channel unavailable, counting zero",
					slog.Int("channel", ch),
					slog.Int("actuator", actuator),
					slog.String("error", err.Error()))
				continue
			}

			counts[actuator] += len(spikes)
		}
	}

	return counts, a.mapper.MapAll(counts)
}
