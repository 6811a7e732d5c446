package value

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDuration = errors.New("invalid duration")

var durationUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseDuration reads a script duration such as 20t, 1.5s, 10m, 2h or 3d.
// A bare number is seconds; t counts host ticks of the given length
func ParseDuration(s string, tick time.Duration) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, ErrInvalidDuration
	}
	if n, ok := ParseNumber(s); ok {
		return checkDuration(s, n, time.Second)
	}

	unit := s[len(s)-1]
	n, ok := ParseNumber(s[:len(s)-1])
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, s)
	}
	if unit == 't' {
		return checkDuration(s, n, tick)
	}
	scale, ok := durationUnits[unit]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, s)
	}
	return checkDuration(s, n, scale)
}

func checkDuration(src string, n float64, scale time.Duration) (
	time.Duration, error,
) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, src)
	}
	return time.Duration(n * float64(scale)), nil
}
