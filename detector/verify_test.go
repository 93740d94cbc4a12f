package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyStaleRoot(t *testing.T) {
	first, second := New(), New()
	a := first.Fork()
	b := a.Fork()
	require.NoError(t, a.AttachToParent(second))
	require.NoError(t, a.Verify())
	require.NoError(t, b.Verify())

	a.root = first
	assert.Error(t, a.Verify())
	assert.Error(t, second.Verify())
	assert.NoError(t, first.Verify())

	a.root = second
	b.root = first
	assert.Error(t, b.Verify())
	assert.Error(t, a.Verify())
}
