// Package protocol implements the line-oriented command/response format
// spoken between the host controller and the embedded motion controller.
//
// A command is one line of comma-separated ASCII decimal angles, one value
// per actuator, terminated by a line feed:
//
//	"30,120,50,0,80\n"
//
// The receiver answers "OK\n" on a valid command or "ERROR:<message>\n" on a
// malformed one. Both sides validate independently.
package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// MinAngle and MaxAngle bound every value crossing the wire.
	MinAngle = 0
	MaxAngle = 180

	// OK is the success response token.
	OK = "OK"

	// errorPrefix starts every error response line.
	errorPrefix = "ERROR:"
)

// ErrFormat reports a malformed command line. A command that fails to parse
// has no effect on motion state.
var ErrFormat = errors.New("malformed command")

// Clamp limits an angle to [MinAngle, MaxAngle].
func Clamp(angle int) int {
	if angle < MinAngle {
		return MinAngle
	}
	if angle > MaxAngle {
		return MaxAngle
	}
	return angle
}

// ClampRound rounds a fractional angle to the nearest integer and clamps it.
func ClampRound(angle float64) int {
	return Clamp(int(math.Round(angle)))
}

// FormatCommand frames an angle vector as a command line, clamping each value.
// The returned string includes the terminating line feed.
func FormatCommand(angles []int) string {
	var b strings.Builder
	for i, a := range angles {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(Clamp(a)))
	}
	b.WriteByte('\n')
	return b.String()
}

// ParseCommand parses a command line into exactly n angle values. The line
// must not include the terminator. Tokens are comma-separated, optionally
// signed decimal integers; leading and trailing whitespace per token is
// accepted. Values are not clamped here; the caller decides how to apply
// range limits.
//
// A token count other than n, or an unparseable token, returns an error
// wrapping ErrFormat and no values.
func ParseCommand(line string, n int) ([]int, error) {
	tokens := strings.Split(line, ",")
	if len(tokens) != n {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrFormat, n, len(tokens))
	}

	values := make([]int, n)
	for i, token := range tokens {
		v, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			return nil, fmt.Errorf("%w: value %d is not an integer: %q", ErrFormat, i, token)
		}
		values[i] = v
	}

	return values, nil
}

// FormatResponse produces the response line for a command outcome: "OK\n" for
// nil, "ERROR:<message>\n" otherwise.
func FormatResponse(err error) string {
	if err == nil {
		return OK + "\n"
	}
	return errorPrefix + err.Error() + "\n"
}

// IsSuccessResponse reports whether a received response line (without
// terminator) is the success token.
func IsSuccessResponse(line string) bool {
	return strings.TrimSpace(line) == OK
}
