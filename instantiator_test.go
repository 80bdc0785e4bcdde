package structcol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstantiate(t *testing.T) {
	d := pointDescriptor(t)

	t.Run("round_trip", func(t *testing.T) {
		in := point{Y: ptr("1"), Z: -100, X: ptr(10)}
		tuple, err := d.Decompose(in)
		require.NoError(t, err)
		out, err := d.Instantiate(tuple)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("text_tuple", func(t *testing.T) {
		// Text-protocol codecs decode every sub-column as a string.
		v, err := d.Instantiate([]any{"10", "1", "-100"})
		require.NoError(t, err)
		assert.Equal(t, point{Y: ptr("1"), Z: -100, X: ptr(10)}, v)
	})

	t.Run("json_numbers", func(t *testing.T) {
		v, err := d.Instantiate([]any{json.Number("10"), "1", json.Number("-100")})
		require.NoError(t, err)
		assert.Equal(t, point{Y: ptr("1"), Z: -100, X: ptr(10)}, v)
	})

	t.Run("nil_tuple_is_absent", func(t *testing.T) {
		v, err := d.Instantiate(nil)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("all_null_is_absent", func(t *testing.T) {
		v, err := d.Instantiate([]any{nil, nil, nil})
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("partial_null", func(t *testing.T) {
		v, err := d.Instantiate([]any{nil, nil, int64(-100)})
		require.NoError(t, err)
		assert.Equal(t, point{Z: -100}, v)
	})

	t.Run("null_for_non_nillable", func(t *testing.T) {
		_, err := d.Instantiate([]any{int64(10), "1", nil})
		assert.True(t, IsProjectionError(err))
	})

	t.Run("arity_mismatch", func(t *testing.T) {
		_, err := d.Instantiate([]any{int64(10), "1"})
		assert.True(t, IsProjectionError(err))
	})

	t.Run("unparsable", func(t *testing.T) {
		_, err := d.Instantiate([]any{"ten", "1", int64(-100)})
		assert.True(t, IsProjectionError(err))
	})
}

// The projection table maps physical positions to constructor arguments, so
// two attributes of the same type must never swap when physical, declaration
// and constructor orders all differ.
func TestInstantiateOrderIndependence(t *testing.T) {
	type pair struct {
		A int
		B int
	}
	d, err := NewDescriptor("int_pair", pair{},
		WithConstructor(func(b, a int) pair { return pair{A: a, B: b} }, "b", "a"),
		WithColumnOrder("b", "a"),
	)
	require.NoError(t, err)

	// Physical order is (b, a).
	tuple, err := d.Decompose(pair{A: 1, B: 2})
	require.NoError(t, err)
	assert.Equal(t, []any{2, 1}, tuple)

	v, err := d.Instantiate(tuple)
	require.NoError(t, err)
	assert.Equal(t, pair{A: 1, B: 2}, v)
}

func TestInstantiateNullZeroPolicy(t *testing.T) {
	d, err := NewDescriptor("p", point{}, WithNullPolicy(NullZero))
	require.NoError(t, err)

	v, err := d.Instantiate(nil)
	require.NoError(t, err)
	assert.Equal(t, point{}, v)

	v, err = d.Instantiate([]any{nil, nil, nil})
	require.NoError(t, err)
	assert.Equal(t, point{}, v)
}

func TestInstantiateWithoutConstructor(t *testing.T) {
	d, err := NewDescriptor("p", point{}, WithColumnOrder("x", "y", "z"))
	require.NoError(t, err)
	v, err := d.Instantiate([]any{10, "1", int64(-100)})
	require.NoError(t, err)
	assert.Equal(t, point{Y: ptr("1"), Z: -100, X: ptr(10)}, v)
}

func TestReconstruct(t *testing.T) {
	d := pointDescriptor(t)

	p, ok, err := Reconstruct[point](d, []any{10, "1", int64(-100)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, point{Y: ptr("1"), Z: -100, X: ptr(10)}, p)

	p, ok, err = Reconstruct[point](d, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, point{}, p)

	_, _, err = Reconstruct[string](d, []any{10, "1", int64(-100)})
	assert.True(t, IsProjectionError(err))
}
