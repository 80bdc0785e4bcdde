package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryRoundTrip(t *testing.T) {
	c := Binary{}

	t.Run("plain", func(t *testing.T) {
		v, err := c.Encode(pointLayout, []any{10, "1", int64(-100)})
		require.NoError(t, err)
		buf, ok := v.([]byte)
		require.True(t, ok)
		require.NotEmpty(t, buf)

		tuple, err := c.Decode(pointLayout, buf)
		require.NoError(t, err)
		require.Len(t, tuple, 3)
		assert.EqualValues(t, 10, tuple[0])
		assert.Equal(t, "1", tuple[1])
		assert.EqualValues(t, -100, tuple[2])
	})

	t.Run("null_member", func(t *testing.T) {
		v, err := c.Encode(pointLayout, []any{nil, "1", int64(-100)})
		require.NoError(t, err)
		tuple, err := c.Decode(pointLayout, v)
		require.NoError(t, err)
		assert.Nil(t, tuple[0])
		assert.Equal(t, "1", tuple[1])
	})

	t.Run("nil_tuple", func(t *testing.T) {
		v, err := c.Encode(pointLayout, nil)
		require.NoError(t, err)
		assert.Nil(t, v)
		tuple, err := c.Decode(pointLayout, nil)
		require.NoError(t, err)
		assert.Nil(t, tuple)
	})

	t.Run("arity", func(t *testing.T) {
		_, err := c.Encode(pointLayout, []any{1, 2, 3, 4})
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := c.Decode(pointLayout, []byte{0xc1})
		assert.Error(t, err)
	})
}
