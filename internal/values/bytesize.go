package values

import (
	"github.com/pkg/errors"
)

var ErrInvalidByteSize = errors.New("invalid byte size")

// ParseByteSize parses digits followed by an optional unit letter:
// b/B=1, k/K=1024, m/M=1024^2, g/G=1024^3, t/T=1024^4. No unit means bytes.
func ParseByteSize(s string) (int64, error) {
	if s == "" {
		return 0, errors.Wrapf(ErrInvalidByteSize, "%q", s)
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, errors.Wrapf(ErrInvalidByteSize, "%q", s)
	}

	var n int64
	for _, c := range []byte(s[:i]) {
		n = n*10 + int64(c-'0')
	}

	if i == len(s) {
		return n, nil
	}
	if i != len(s)-1 {
		return 0, errors.Wrapf(ErrInvalidByteSize, "%q", s)
	}

	var mult int64
	switch s[i] {
	case 'b', 'B':
		mult = 1
	case 'k', 'K':
		mult = 1024
	case 'm', 'M':
		mult = 1024 * 1024
	case 'g', 'G':
		mult = 1024 * 1024 * 1024
	case 't', 'T':
		mult = 1024 * 1024 * 1024 * 1024
	default:
		return 0, errors.Wrapf(ErrInvalidByteSize, "%q: unknown unit %q", s, s[i])
	}

	return n * mult, nil
}
