package diag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAddAndOrder(t *testing.T) {
	var l List
	l.AddWarning(&Position{Line: 2, Column: 4}, "warn %d", 1)
	l.AddError(nil, "boom")
	l.AddHint(&Position{Line: 0, Column: 0}, "hint")

	require.Equal(t, 3, l.Count())
	assert.Equal(t, Warning, l.Items()[0].Severity)
	assert.Equal(t, Error, l.Items()[1].Severity)
	assert.Equal(t, Hint, l.Items()[2].Severity)
	assert.True(t, l.HasErrors())
}

func TestListHasErrorsFalseWithoutErrors(t *testing.T) {
	var l List
	l.AddWarning(nil, "just a warning")
	assert.False(t, l.HasErrors())
}

func TestListBudgetDropsExcess(t *testing.T) {
	budget := 2
	l := List{Budget: &budget}
	l.AddWarning(nil, "one")
	l.AddWarning(nil, "two")
	l.AddWarning(nil, "three")

	assert.Equal(t, 2, l.Count())
	assert.Equal(t, 1, l.DroppedCount())
}

func TestListWriteAll(t *testing.T) {
	var l List
	line, col := 3, 7
	l.Add(Error, &Position{Line: line, Column: col}, "bad thing")
	l.Add(Warning, nil, "position-less")

	var sb strings.Builder
	require.NoError(t, l.WriteAll("compose.yaml", &sb))

	out := sb.String()
	assert.Contains(t, out, "compose.yaml:4:8: error: bad thing")
	assert.Contains(t, out, "compose.yaml: warning: position-less")
}
