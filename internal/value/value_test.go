package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInt64(t *testing.T) {
	i, ok := GetInt64(int32(7))
	require.True(t, ok)
	assert.Equal(t, int64(7), i)

	_, ok = GetInt64(3.5)
	assert.False(t, ok)

	_, ok = GetInt64(true)
	assert.False(t, ok)
}

func TestGetFloat64(t *testing.T) {
	f, ok := GetFloat64(3)
	require.True(t, ok)
	assert.Equal(t, 3.0, f)

	f, ok = GetFloat64(float32(1.5))
	require.True(t, ok)
	assert.Equal(t, 1.5, f)

	_, ok = GetFloat64("x")
	assert.False(t, ok)
}

func TestOrder_Numeric(t *testing.T) {
	c, err := Order(2, 3.0)
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = Order(int64(5), 5)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestOrder_Strings(t *testing.T) {
	c, err := Order("a", "b")
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestOrder_Bools(t *testing.T) {
	c, err := Order(false, true)
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestOrder_Nil(t *testing.T) {
	c, err := Order(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	_, err = Order(nil, 1)
	assert.Error(t, err)
}

func TestOrder_Incompatible(t *testing.T) {
	_, err := Order("a", 1)
	assert.Error(t, err)
	assert.False(t, Equal("a", 1))
	assert.True(t, Equal(2, 2.0))
}
