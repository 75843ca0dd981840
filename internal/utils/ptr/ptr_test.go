package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTo(t *testing.T) {
	s := "test"
	p := To(s)
	require.NotNil(t, p)
	assert.Equal(t, s, *p)
	assert.NotSame(t, &s, p)
}

func TestValue(t *testing.T) {
	assert.Equal(t, "", Value[string](nil))
	assert.Equal(t, int64(0), Value[int64](nil))
	assert.Equal(t, 4.5, Value(To(4.5)))
	assert.Equal(t, "x", ValueOr(nil, "x"))
	assert.Equal(t, "y", ValueOr(To("y"), "x"))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal[int](nil, nil))
	assert.False(t, Equal(nil, To(1)))
	assert.False(t, Equal(To(1), nil))
	assert.True(t, Equal(To(1), To(1)))
	assert.False(t, Equal(To(1), To(2)))
}

func TestNonZero(t *testing.T) {
	assert.Nil(t, NonZero(""))
	assert.Nil(t, NonZero(0.0))
	assert.Equal(t, "a", *NonZero("a"))
}
