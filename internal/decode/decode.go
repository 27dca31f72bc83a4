// Package decode turns windowed neural activity into per-actuator joint
// angles: an assignment groups channels under actuators, an aggregator sums
// spike counts per group, and a mapper converts each count into a clamped
// angle.
package decode

// Counts holds one non-negative activity count per actuator.
type Counts []int

// Angles holds one joint angle per actuator, each within the configured
// [0, maxAngle] range.
type Angles []int

// Clone returns an independent copy of the vector.
func (c Counts) Clone() Counts {
	out := make(Counts, len(c))
	copy(out, c)
	return out
}

// Clone returns an independent copy of the vector.
func (a Angles) Clone() Angles {
	out := make(Angles, len(a))
	copy(out, a)
	return out
}
