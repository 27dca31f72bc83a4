package neural

import (
	"context"
	"fmt"
	"math"
	"time"
)

const defaultRate = 120.0 // spikes per second

// Synthetic generates deterministic pseudo-random spike trains. It stands in
// for the acquisition backend on machines without an electrode array attached.
//
// Each channel fires at a base rate modulated by a slow sine wave whose phase
// depends on the channel id, so different channels produce visibly different
// activity. Repeated queries for the same window return the same spikes.
type Synthetic struct {
	rates map[int]float64
	dead  map[int]struct{}
}

// WithRate overrides the spike rate (Hz) for a single channel.
func WithRate(channel int, rate float64) func(*Synthetic) {
	return func(s *Synthetic) {
		s.rates[channel] = rate
	}
}

// WithDeadChannel marks a channel as unavailable; queries against it fail.
// Used to exercise the partial-failure path without hardware.
func WithDeadChannel(channel int) func(*Synthetic) {
	return func(s *Synthetic) {
		s.dead[channel] = struct{}{}
	}
}

// NewSynthetic creates a synthetic spike source.
func NewSynthetic(options ...func(*Synthetic)) *Synthetic {
	s := Synthetic{
		rates: make(map[int]float64),
		dead:  make(map[int]struct{}),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

func (s *Synthetic) rate(channel int, at time.Duration) float64 {
	base := defaultRate
	if r, ok := s.rates[channel]; ok {
		base = r
	}

	// Slow modulation, phase-shifted per channel.
	phase := float64(channel) * math.Pi / 4
	mod := 0.5 + 0.5*math.Sin(2*math.Pi*at.Seconds()/8+phase)

	return base * mod
}

// Timestamps implements SpikeSource. Spike k on a channel occurs at a fixed,
// channel-dependent time, so the train is a pure function of (channel, window).
func (s *Synthetic) Timestamps(ctx context.Context, channel int, t1, t2 time.Duration) ([]time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := s.dead[channel]; ok {
		return nil, fmt.Errorf("channel %d: no data available", channel)
	}
	if t1 > t2 {
		return nil, fmt.Errorf("channel %d: invalid window [%s, %s]", channel, t1, t2)
	}

	var spikes []time.Duration

	// Walk the window in 1ms steps and emit a spike whenever the accumulated
	// instantaneous rate crosses an integer boundary. Deterministic and cheap.
	const step = time.Millisecond
	acc := s.rate(channel, t1) * t1.Seconds()
	fired := math.Floor(acc)
	for t := t1; t <= t2; t += step {
		acc += s.rate(channel, t) * step.Seconds()
		if math.Floor(acc) > fired {
			fired = math.Floor(acc)
			spikes = append(spikes, t)
		}
	}

	return spikes, nil
}
