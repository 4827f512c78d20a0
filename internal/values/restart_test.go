package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRestartPolicy(t *testing.T) {
	t.Run("no", func(t *testing.T) {
		p, ok := ParseRestartPolicy("no")
		require.True(t, ok)
		assert.Equal(t, RestartPolicy{Policy: RestartNo}, p)
	})

	t.Run("always", func(t *testing.T) {
		p, ok := ParseRestartPolicy("always")
		require.True(t, ok)
		assert.Equal(t, RestartAlways, p.Policy)
	})

	t.Run("unless-stopped", func(t *testing.T) {
		p, ok := ParseRestartPolicy("unless-stopped")
		require.True(t, ok)
		assert.Equal(t, RestartUnlessStopped, p.Policy)
	})

	t.Run("on-failure without count", func(t *testing.T) {
		p, ok := ParseRestartPolicy("on-failure")
		require.True(t, ok)
		assert.Equal(t, RestartOnFailure, p.Policy)
		assert.Nil(t, p.MaxRetries)
	})

	t.Run("on-failure with count", func(t *testing.T) {
		p, ok := ParseRestartPolicy("on-failure:5")
		require.True(t, ok)
		assert.Equal(t, RestartOnFailure, p.Policy)
		require.NotNil(t, p.MaxRetries)
		assert.Equal(t, 5, *p.MaxRetries)
	})

	t.Run("unrecognized input defaults to no", func(t *testing.T) {
		p, ok := ParseRestartPolicy("whatever")
		assert.False(t, ok)
		assert.Equal(t, RestartNo, p.Policy)
	})
}
