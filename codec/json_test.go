package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONEncode(t *testing.T) {
	c := JSON{}

	t.Run("plain", func(t *testing.T) {
		v, err := c.Encode(pointLayout, []any{10, "1", int64(-100)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"x":10,"y":"1","z":-100}`, v.(string))
	})

	t.Run("null_member", func(t *testing.T) {
		v, err := c.Encode(pointLayout, []any{nil, "1", int64(-100)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"x":null,"y":"1","z":-100}`, v.(string))
	})

	t.Run("nil_tuple", func(t *testing.T) {
		v, err := c.Encode(pointLayout, nil)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("arity", func(t *testing.T) {
		_, err := c.Encode(pointLayout, []any{1})
		assert.Error(t, err)
	})
}

func TestJSONDecode(t *testing.T) {
	c := JSON{}

	t.Run("plain", func(t *testing.T) {
		tuple, err := c.Decode(pointLayout, `{"x":10,"y":"1","z":-100}`)
		require.NoError(t, err)
		assert.Equal(t, []any{json.Number("10"), "1", json.Number("-100")}, tuple)
	})

	t.Run("null_and_missing_members", func(t *testing.T) {
		tuple, err := c.Decode(pointLayout, []byte(`{"y":"1"}`))
		require.NoError(t, err)
		assert.Equal(t, []any{nil, "1", nil}, tuple)
	})

	t.Run("nil_stored", func(t *testing.T) {
		tuple, err := c.Decode(pointLayout, nil)
		require.NoError(t, err)
		assert.Nil(t, tuple)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := c.Decode(pointLayout, "not json")
		assert.Error(t, err)
	})
}

func TestJSONExprs(t *testing.T) {
	c := JSON{}
	assert.Equal(t,
		"json_set(coalesce(the_point, '{}'), '$.y', ?, '$.z', ?)",
		c.UpdateExpr("the_point", []string{"y", "z"}, []string{"?", "?"}),
	)
	assert.Equal(t, "the_point ->> '$.y'", c.MemberExpr("the_point", "y"))
}
