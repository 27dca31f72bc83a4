package decode

import "math"

const (
	// DefaultMinCount and DefaultMaxCount bound the activity range mapped
	// onto the angle span.
	DefaultMinCount = 0
	DefaultMaxCount = 2000

	// DefaultMaxAngle is the fully extended actuator position in degrees.
	DefaultMaxAngle = 180
)

// MapAngle converts an activity count into a joint angle. Higher activity
// yields a lower angle (flexed), lower activity a higher angle (extended).
// The count is normalized over [minCount, maxCount], clamped to [0, 1], and
// the result rounded to the nearest degree in [0, maxAngle].
//
// A degenerate range (maxCount == minCount) maps everything to maxAngle
// rather than dividing by zero.
func MapAngle(count, minCount, maxCount, maxAngle int) int {
	if maxCount == minCount {
		return maxAngle
	}

	normalized := float64(count-minCount) / float64(maxCount-minCount)
	normalized = math.Min(math.Max(normalized, 0), 1)

	return int(math.Round((1 - normalized) * float64(maxAngle)))
}

// Mapper carries a session's fixed mapping bounds so call sites do not repeat
// them.
type Mapper struct {
	MinCount int
	MaxCount int
	MaxAngle int
}

// NewMapper returns a Mapper with the default bounds.
func NewMapper() Mapper {
	return Mapper{
		MinCount: DefaultMinCount,
		MaxCount: DefaultMaxCount,
		MaxAngle: DefaultMaxAngle,
	}
}

// Map applies MapAngle with the mapper's bounds.
func (m Mapper) Map(count int) int {
	return MapAngle(count, m.MinCount, m.MaxCount, m.MaxAngle)
}

// MapAll maps a full count vector to an angle vector.
func (m Mapper) MapAll(counts Counts) Angles {
	angles := make(Angles, len(counts))
	for i, c := range counts {
		angles[i] = m.Map(c)
	}
	return angles
}
