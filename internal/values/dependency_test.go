package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDependencyCondition(t *testing.T) {
	t.Run("service_started", func(t *testing.T) {
		c, ok := ParseDependencyCondition("service_started")
		require.True(t, ok)
		assert.Equal(t, ServiceStarted, c)
	})

	t.Run("service_healthy", func(t *testing.T) {
		c, ok := ParseDependencyCondition("service_healthy")
		require.True(t, ok)
		assert.Equal(t, ServiceHealthy, c)
	})

	t.Run("service_completed_successfully", func(t *testing.T) {
		c, ok := ParseDependencyCondition("service_completed_successfully")
		require.True(t, ok)
		assert.Equal(t, ServiceCompletedSuccessfully, c)
	})

	t.Run("unknown condition", func(t *testing.T) {
		_, ok := ParseDependencyCondition("service_whatever")
		assert.False(t, ok)
	})
}
