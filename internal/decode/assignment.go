package decode

import "fmt"

// Assignment maps each actuator to the set of channels whose activity drives
// it. Configured once at startup and immutable for the session. Channel sets
// may overlap across actuators; a shared electrode is a valid configuration.
type Assignment [][]int

// DefaultAssignment returns the reference five-actuator layout over a 32
// channel array. Channel 11 intentionally appears under two actuators.
func DefaultAssignment() Assignment {
	return Assignment{
		{0, 1, 2, 3, 4, 5},
		{6, 7, 8, 9, 10, 11},
		{11, 12, 13, 14, 15, 16},
		{17, 18, 19, 20, 21, 22, 23},
		{24, 25, 26, 27, 28, 29, 30, 31},
	}
}

// Validate checks that every actuator has at least one channel.
func (a Assignment) Validate() error {
	if len(a) == 0 {
		return fmt.Errorf("assignment has no actuators")
	}
	for i, channels := range a {
		if len(channels) == 0 {
			return fmt.Errorf("actuator %d has no channels assigned", i)
		}
	}
	return nil
}

// Actuators returns the number of actuators in the assignment.
func (a Assignment) Actuators() int {
	return len(a)
}
