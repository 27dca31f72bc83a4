package decode

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// fakeSource serves fixed spike counts per channel and fails on demand.
type fakeSource struct {
	spikes  map[int]int
	failing map[int]bool
	queries []int
}

func (f *fakeSource) Timestamps(_ context.Context, channel int, t1, t2 time.Duration) ([]time.Duration, error) {
	f.queries = append(f.queries, channel)

	if f.failing[channel] {
		return nil, fmt.Errorf("channel %d offline", channel)
	}

	spikes := make([]time.Duration, f.spikes[channel])
	for i := range spikes {
		spikes[i] = t1 + time.Duration(i)*(t2-t1)/time.Duration(len(spikes)+1)
	}
	return spikes, nil
}

func TestAggregator_SumsChannelsPerActuator(t *testing.T) {
	source := &fakeSource{spikes: map[int]int{0: 3, 1: 5, 2: 7, 3: 11}}
	assignment := Assignment{{0, 1}, {2, 3}}

	agg := NewAggregator(source, assignment, NewMapper())
	counts, angles := agg.Sample(context.Background(), 0, time.Second)

	if counts[0] != 8 || counts[1] != 18 {
		t.Errorf("counts = %v, want [8 18]", counts)
	}
	if len(angles) != 2 {
		t.Fatalf("got %d angles, want 2", len(angles))
	}
	for i, c := range counts {
		if want := NewMapper().Map(c); angles[i] != want {
			t.Errorf("angle %d = %d, want %d", i, angles[i], want)
		}
	}
}

func TestAggregator_FailingChannelContributesZero(t *testing.T) {
	source := &fakeSource{
		spikes:  map[int]int{0: 3, 1: 5, 2: 7},
		failing: map[int]bool{1: true},
	}
	assignment := Assignment{{0, 1, 2}}

	agg := NewAggregator(source, assignment, NewMapper())
	counts, _ := agg.Sample(context.Background(), 0, time.Second)

	if counts[0] != 10 {
		t.Errorf("counts[0] = %d, want 10 (sum of the two healthy channels)", counts[0])
	}
}

func TestAggregator_IgnoredChannelsSkipped(t *testing.T) {
	source := &fakeSource{spikes: map[int]int{0: 3, 1: 5, 2: 7}}
	assignment := Assignment{{0, 1, 2}}

	agg := NewAggregator(source, assignment, NewMapper(), WithIgnoredChannels(1))
	counts, _ := agg.Sample(context.Background(), 0, time.Second)

	if counts[0] != 10 {
		t.Errorf("counts[0] = %d, want 10 with channel 1 ignored", counts[0])
	}
	for _, ch := range source.queries {
		if ch == 1 {
			t.Error("ignored channel 1 was still queried")
		}
	}
}

func TestAggregator_OverlappingChannelCountsTwice(t *testing.T) {
	source := &fakeSource{spikes: map[int]int{0: 3, 1: 5}}
	assignment := Assignment{{0, 1}, {1}}

	agg := NewAggregator(source, assignment, NewMapper())
	counts, _ := agg.Sample(context.Background(), 0, time.Second)

	if counts[0] != 8 || counts[1] != 5 {
		t.Errorf("counts = %v, want [8 5] with channel 1 shared", counts)
	}
}

func TestAssignment_Validate(t *testing.T) {
	tests := []struct {
		name       string
		assignment Assignment
		wantErr    bool
	}{
		{"default layout", DefaultAssignment(), false},
		{"empty assignment", Assignment{}, true},
		{"actuator without channels", Assignment{{0, 1}, {}}, true},
		{"overlap allowed", Assignment{{0, 1}, {1, 2}}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.assignment.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
