package values

import (
	"time"

	"github.com/pkg/errors"
)

var ErrInvalidDuration = errors.New("invalid duration")

// ParseDuration parses a sequence of "(digits unit)*" where unit is one of
// h, m, s. A trailing bare number with no unit is interpreted as seconds.
// Components accumulate left to right; "1h30m" == 5400s, "60" == 60s.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.Wrapf(ErrInvalidDuration, "%q", s)
	}

	var total time.Duration
	i := 0
	for i < len(s) {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return 0, errors.Wrapf(ErrInvalidDuration, "%q", s)
		}
		digits := s[start:i]

		var n int64
		for _, c := range []byte(digits) {
			n = n*10 + int64(c-'0')
		}

		if i >= len(s) {
			// Trailing bare number: seconds.
			total += time.Duration(n) * time.Second
			return total, nil
		}

		switch s[i] {
		case 'h':
			total += time.Duration(n) * time.Hour
		case 'm':
			total += time.Duration(n) * time.Minute
		case 's':
			total += time.Duration(n) * time.Second
		default:
			return 0, errors.Wrapf(ErrInvalidDuration, "%q: unknown unit %q", s, s[i])
		}
		i++
	}

	return total, nil
}
