package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	t.Cleanup(func() { require.NoError(t, Apply("default")) })

	require.NoError(t, Apply("mono"))
	assert.Equal(t, Palettes["mono"], Active)
	assert.Equal(t, Palettes["mono"].Accent, SelectedItemStyle.GetForeground())
	assert.Equal(t, Palettes["mono"].Good, CountStyle(3).GetForeground())

	require.NoError(t, Apply(""))
	assert.Equal(t, Palettes["default"], Active)
	assert.Equal(t, Palettes["default"].Accent, HeaderStyle.GetBackground())
}

func TestApply_UnknownThemeKeepsStyles(t *testing.T) {
	before := Active

	err := Apply("solarized")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown theme "solarized"`)
	assert.Equal(t, before, Active)
}

func TestCountStyle_DimsEmptyCategories(t *testing.T) {
	assert.Equal(t, Active.Muted, CountStyle(0).GetForeground())
	assert.Equal(t, Active.Good, CountStyle(1).GetForeground())
}
