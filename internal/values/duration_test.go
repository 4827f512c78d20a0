package values

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"60", 60 * time.Second},
		{"1h30m", time.Hour + 30*time.Minute},
		{"1h30m10s", time.Hour + 30*time.Minute + 10*time.Second},
		{"30s", 30 * time.Second},
		{"2h", 2 * time.Hour},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseDuration(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}

	t.Run("empty is an error", func(t *testing.T) {
		_, err := ParseDuration("")
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})

	t.Run("unknown unit is an error", func(t *testing.T) {
		_, err := ParseDuration("5x")
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})

	t.Run("leading non-digit is an error", func(t *testing.T) {
		_, err := ParseDuration("h5")
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})
}
