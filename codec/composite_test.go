package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pointLayout = Layout{DBType: "my_point_type", Columns: []string{"x", "y", "z"}}

func TestCompositeEncode(t *testing.T) {
	c := Composite{}

	t.Run("plain", func(t *testing.T) {
		v, err := c.Encode(pointLayout, []any{10, "1", int64(-100)})
		require.NoError(t, err)
		assert.Equal(t, "(10,1,-100)", v)
	})

	t.Run("null_member", func(t *testing.T) {
		v, err := c.Encode(pointLayout, []any{nil, "1", int64(-100)})
		require.NoError(t, err)
		assert.Equal(t, "(,1,-100)", v)
	})

	t.Run("nil_tuple", func(t *testing.T) {
		v, err := c.Encode(pointLayout, nil)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("quoting", func(t *testing.T) {
		v, err := c.Encode(pointLayout, []any{1, `a,b "c" \d`, 2})
		require.NoError(t, err)
		assert.Equal(t, `(1,"a,b ""c"" \\d",2)`, v)
	})

	t.Run("empty_string_is_quoted", func(t *testing.T) {
		v, err := c.Encode(pointLayout, []any{1, "", 2})
		require.NoError(t, err)
		assert.Equal(t, `(1,"",2)`, v)
	})

	t.Run("bool", func(t *testing.T) {
		v, err := c.Encode(Layout{DBType: "t", Columns: []string{"a", "b"}}, []any{true, false})
		require.NoError(t, err)
		assert.Equal(t, "(t,f)", v)
	})

	t.Run("arity", func(t *testing.T) {
		_, err := c.Encode(pointLayout, []any{1, 2})
		assert.Error(t, err)
	})
}

func TestCompositeDecode(t *testing.T) {
	c := Composite{}

	t.Run("plain", func(t *testing.T) {
		tuple, err := c.Decode(pointLayout, "(10,1,-100)")
		require.NoError(t, err)
		assert.Equal(t, []any{"10", "1", "-100"}, tuple)
	})

	t.Run("null_member", func(t *testing.T) {
		tuple, err := c.Decode(pointLayout, []byte("(,1,-100)"))
		require.NoError(t, err)
		assert.Equal(t, []any{nil, "1", "-100"}, tuple)
	})

	t.Run("trailing_null", func(t *testing.T) {
		tuple, err := c.Decode(pointLayout, "(10,1,)")
		require.NoError(t, err)
		assert.Equal(t, []any{"10", "1", nil}, tuple)
	})

	t.Run("nil_stored", func(t *testing.T) {
		tuple, err := c.Decode(pointLayout, nil)
		require.NoError(t, err)
		assert.Nil(t, tuple)
	})

	t.Run("quoted", func(t *testing.T) {
		tuple, err := c.Decode(pointLayout, `(1,"a,b ""c"" \\d",2)`)
		require.NoError(t, err)
		assert.Equal(t, []any{"1", `a,b "c" \d`, "2"}, tuple)
	})

	t.Run("quoted_empty_string", func(t *testing.T) {
		tuple, err := c.Decode(pointLayout, `(1,"",2)`)
		require.NoError(t, err)
		assert.Equal(t, []any{"1", "", "2"}, tuple)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := c.Decode(pointLayout, "10,1,-100")
		assert.Error(t, err)
		_, err = c.Decode(pointLayout, `(1,"unterminated,2)`)
		assert.Error(t, err)
	})

	t.Run("arity", func(t *testing.T) {
		_, err := c.Decode(pointLayout, "(1,2)")
		assert.Error(t, err)
	})
}

func TestCompositeRoundTrip(t *testing.T) {
	c := Composite{}
	tuples := [][]any{
		{10, "1", int64(-100)},
		{nil, "", int64(0)},
		{-7, `quote " and \ comma ,`, int64(42)},
	}
	for _, in := range tuples {
		v, err := c.Encode(pointLayout, in)
		require.NoError(t, err)
		out, err := c.Decode(pointLayout, v)
		require.NoError(t, err)
		require.Len(t, out, len(in))
		// Decoding yields strings; spot-check the string member.
		if in[1] == nil {
			assert.Nil(t, out[1])
		} else {
			assert.Equal(t, in[1], out[1])
		}
	}
}

func TestCompositeExprs(t *testing.T) {
	c := Composite{}
	assert.Equal(t, "the_point.y = $1", c.AssignExpr("the_point", "y", "$1"))
	assert.Equal(t, "(the_point).y", c.MemberExpr("the_point", "y"))
	assert.Equal(t, "$1::my_point_type", c.BindExpr(pointLayout, "$1"))
}
