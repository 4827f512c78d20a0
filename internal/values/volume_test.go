package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVolumeMount(t *testing.T) {
	t.Run("bare bind mount", func(t *testing.T) {
		v, err := ParseVolumeMount("/host/data:/data")
		require.NoError(t, err)
		assert.Equal(t, VolumeMount{Source: "/host/data", Target: "/data"}, v)
	})

	t.Run("read only suffix", func(t *testing.T) {
		v, err := ParseVolumeMount("/host/data:/data:ro")
		require.NoError(t, err)
		assert.True(t, v.ReadOnly)
		assert.Equal(t, "/data", v.Target)
	})

	t.Run("explicit read write suffix", func(t *testing.T) {
		v, err := ParseVolumeMount("/host/data:/data:rw")
		require.NoError(t, err)
		assert.False(t, v.ReadOnly)
	})

	t.Run("named volume", func(t *testing.T) {
		v, err := ParseVolumeMount("cache:/var/cache")
		require.NoError(t, err)
		assert.Equal(t, "cache", v.Source)
	})

	t.Run("no colon is an error", func(t *testing.T) {
		_, err := ParseVolumeMount("/data")
		assert.ErrorIs(t, err, ErrInvalidVolumeFormat)
	})

	t.Run("empty target is an error", func(t *testing.T) {
		_, err := ParseVolumeMount("/data:")
		assert.ErrorIs(t, err, ErrInvalidVolumeFormat)
	})
}
