package immutable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapSlice(t *testing.T) {
	s := WrapSlice([]any{1, "a", true})
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.Get(0).Unwrap())
	assert.Equal(t, "a", s.Get(1).Unwrap())

	v, ok := s.GetOK(2)
	require.True(t, ok)
	b, isBool := v.Bool()
	assert.True(t, isBool)
	assert.True(t, b)

	_, ok = s.GetOK(3)
	assert.False(t, ok)
}

func TestWrapSlice_Nested(t *testing.T) {
	s := WrapSlice([]any{[]any{1, 2}, 3})
	inner, ok := s.Get(0).Slice()
	require.True(t, ok)
	assert.Equal(t, 2, inner.Len())
}

func TestSlice_Prepend(t *testing.T) {
	empty := Slice{}
	one := empty.Prepend(2)
	two := one.Prepend(1)

	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 1, one.Len())
	assert.Equal(t, 2, two.Len())
	assert.Equal(t, 1, two.Get(0).Unwrap())
	assert.Equal(t, 2, two.Get(1).Unwrap())
	// The shared tail is unchanged.
	assert.Equal(t, 2, one.Get(0).Unwrap())
}

func TestSlice_Range(t *testing.T) {
	s := WrapSlice([]any{10, 20})
	var got []any
	for _, v := range s.Range() {
		got = append(got, v.Unwrap())
	}
	assert.Equal(t, []any{10, 20}, got)
}

func TestSlice_Equal(t *testing.T) {
	eq := func(a, b any) bool { return a == b }
	a := WrapSlice([]any{1, []any{2, 3}})
	b := WrapSlice([]any{1, []any{2, 3}})
	c := WrapSlice([]any{1, []any{2, 4}})

	assert.True(t, a.Equal(b, eq))
	assert.False(t, a.Equal(c, eq))
	assert.False(t, a.Equal(Slice{}, eq))
}

func TestSlice_Export(t *testing.T) {
	s := WrapSlice([]any{1, 2})
	out := s.Export(func(v any) any { return v.(int) * 10 })
	assert.Equal(t, []any{10, 20}, out)
}
