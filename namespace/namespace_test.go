package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleNamespace(t *testing.T) {
	ns := NewModuleNamespace("mathlib", map[string]any{"pi": 3.14159})

	assert.True(t, ns.Contains("pi"))
	assert.False(t, ns.Contains("tau"))
	assert.Equal(t, "module:mathlib", ns.Key())
	assert.Equal(t, "mathlib", ns.Module())

	v, err := ns.Lookup("pi")
	require.NoError(t, err)
	assert.Equal(t, 3.14159, v)

	_, err = ns.Lookup("tau")
	assert.Error(t, err)
}

func TestModuleNamespace_NilTable(t *testing.T) {
	ns := NewModuleNamespace("empty", nil)
	assert.False(t, ns.Contains("x"))
	_, err := ns.Lookup("x")
	assert.Error(t, err)
}

func TestClosureNamespace(t *testing.T) {
	ns := NewClosureNamespace("f", map[string]any{"captured": int64(7)})

	assert.True(t, ns.Contains("captured"))
	assert.Equal(t, "closure:f", ns.Key())

	v, err := ns.Lookup("captured")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	_, err = ns.Lookup("other")
	assert.Error(t, err)
}

func TestNamespaceInterface(t *testing.T) {
	var _ Namespace = NewModuleNamespace("m", nil)
	var _ Namespace = NewClosureNamespace("f", nil)
}
