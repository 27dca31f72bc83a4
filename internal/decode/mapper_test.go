package decode

import "testing"

func TestMapAngle_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int
	}{
		{"min count fully extended", 0, 180},
		{"max count fully flexed", 2000, 0},
		{"midpoint", 1000, 90},
		{"below min clamps", -50, 180},
		{"above max clamps", 5000, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MapAngle(tc.count, 0, 2000, 180); got != tc.want {
				t.Errorf("MapAngle(%d) = %d, want %d", tc.count, got, tc.want)
			}
		})
	}
}

func TestMapAngle_MonotonicNonIncreasing(t *testing.T) {
	prev := MapAngle(0, 0, 2000, 180)
	for count := 1; count <= 2200; count++ {
		got := MapAngle(count, 0, 2000, 180)
		if got > prev {
			t.Fatalf("MapAngle(%d) = %d increased from %d", count, got, prev)
		}
		if got < 0 || got > 180 {
			t.Fatalf("MapAngle(%d) = %d out of [0, 180]", count, got)
		}
		prev = got
	}
}

func TestMapAngle_DegenerateRange(t *testing.T) {
	if got := MapAngle(500, 100, 100, 180); got != 180 {
		t.Errorf("MapAngle with equal bounds = %d, want 180", got)
	}
}

func TestMapper_MapAll(t *testing.T) {
	m := NewMapper()

	got := m.MapAll(Counts{0, 1000, 2000})
	want := Angles{180, 90, 0}

	if len(got) != len(want) {
		t.Fatalf("MapAll returned %d angles, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("angle %d = %d, want %d", i, got[i], want[i])
		}
	}
}
