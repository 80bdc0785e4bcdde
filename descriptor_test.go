package structcol

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDescriptorDefaults(t *testing.T) {
	d, err := NewDescriptor("my_point_type", point{})
	require.NoError(t, err)
	assert.Equal(t, "my_point_type", d.DBType())
	assert.Equal(t, reflect.TypeOf(point{}), d.GoType())
	assert.Equal(t, NullAbsent, d.NullPolicy())

	// Attributes follow field declaration order with snake_case names.
	var names []string
	for _, a := range d.Attributes() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"y", "z", "x"}, names)
	// No explicit order: physical columns follow declaration order.
	assert.Equal(t, []string{"y", "z", "x"}, d.Columns())

	y, ok := d.Attribute("y")
	require.True(t, ok)
	assert.True(t, y.Nillable)
	z, ok := d.Attribute("z")
	require.True(t, ok)
	assert.False(t, z.Nillable)
	_, ok = d.Attribute("w")
	assert.False(t, ok)
}

func TestNewDescriptorSnakeCase(t *testing.T) {
	type shipping struct {
		StreetName *string
		ZipCode    int
	}
	d, err := NewDescriptor("address", shipping{})
	require.NoError(t, err)
	assert.Equal(t, []string{"street_name", "zip_code"}, d.Columns())
}

func TestNewDescriptorColumnOrder(t *testing.T) {
	d := pointDescriptor(t)
	assert.Equal(t, []string{"x", "y", "z"}, d.Columns())

	_, err := NewDescriptor("p", point{}, WithColumnOrder("x", "y"))
	assert.True(t, IsDescriptorError(err))
	_, err = NewDescriptor("p", point{}, WithColumnOrder("x", "y", "y"))
	assert.True(t, IsDescriptorError(err))
	_, err = NewDescriptor("p", point{}, WithColumnOrder("x", "y", "w"))
	assert.True(t, IsDescriptorError(err))
}

func TestNewDescriptorColumnOverride(t *testing.T) {
	d, err := NewDescriptor("p", point{}, WithColumn("y", "y_text"))
	require.NoError(t, err)
	assert.Equal(t, []string{"y_text", "z", "x"}, d.Columns())

	_, err = NewDescriptor("p", point{}, WithColumn("w", "nope"))
	assert.True(t, IsDescriptorError(err))
}

func TestNewDescriptorConstructorValidation(t *testing.T) {
	t.Run("wrong_name_set", func(t *testing.T) {
		_, err := NewDescriptor("p", point{}, WithConstructor(newPoint, "z", "x", "w"))
		assert.True(t, IsDescriptorError(err))
	})
	t.Run("wrong_arity", func(t *testing.T) {
		_, err := NewDescriptor("p", point{}, WithConstructor(newPoint, "z", "x"))
		assert.True(t, IsDescriptorError(err))
	})
	t.Run("wrong_param_type", func(t *testing.T) {
		// y and z swapped: *string parameter would receive the int64 attribute.
		_, err := NewDescriptor("p", point{}, WithConstructor(newPoint, "y", "x", "z"))
		assert.True(t, IsDescriptorError(err))
	})
	t.Run("wrong_return", func(t *testing.T) {
		_, err := NewDescriptor("p", point{}, WithConstructor(func(z int64, x *int, y *string) int { return 0 }, "z", "x", "y"))
		assert.True(t, IsDescriptorError(err))
	})
	t.Run("not_a_func", func(t *testing.T) {
		_, err := NewDescriptor("p", point{}, WithConstructor(42, "z", "x", "y"))
		assert.True(t, IsDescriptorError(err))
	})
	t.Run("error_return", func(t *testing.T) {
		d, err := NewDescriptor("p", point{}, WithConstructor(
			func(z int64, x *int, y *string) (point, error) { return point{Y: y, Z: z, X: x}, nil },
			"z", "x", "y",
		))
		require.NoError(t, err)
		v, err := d.Instantiate([]any{"pluto", int64(5), nil})
		require.NoError(t, err)
		assert.Equal(t, point{Y: ptr("pluto"), Z: 5}, v)
	})
}

func TestNewDescriptorRejectsNonStructs(t *testing.T) {
	_, err := NewDescriptor("p", 42)
	assert.True(t, IsDescriptorError(err))
	_, err = NewDescriptor("p", nil)
	assert.True(t, IsDescriptorError(err))

	type hidden struct{ x int }
	_, err = NewDescriptor("p", hidden{x: 0})
	assert.True(t, IsDescriptorError(err))
}

func TestDescriptorPointerPrototype(t *testing.T) {
	d, err := NewDescriptor("p", &point{})
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(point{}), d.GoType())
}

func TestDecompose(t *testing.T) {
	d := pointDescriptor(t)

	t.Run("physical_order", func(t *testing.T) {
		tuple, err := d.Decompose(point{Y: ptr("1"), Z: -100, X: ptr(10)})
		require.NoError(t, err)
		assert.Equal(t, []any{10, "1", int64(-100)}, tuple)
	})

	t.Run("nil_members", func(t *testing.T) {
		tuple, err := d.Decompose(point{Z: 3})
		require.NoError(t, err)
		assert.Equal(t, []any{nil, nil, int64(3)}, tuple)
	})

	t.Run("absent", func(t *testing.T) {
		tuple, err := d.Decompose(nil)
		require.NoError(t, err)
		assert.Nil(t, tuple)
		var p *point
		tuple, err = d.Decompose(p)
		require.NoError(t, err)
		assert.Nil(t, tuple)
	})

	t.Run("pointer_instance", func(t *testing.T) {
		tuple, err := d.Decompose(&point{Y: ptr("1"), Z: -100, X: ptr(10)})
		require.NoError(t, err)
		assert.Equal(t, []any{10, "1", int64(-100)}, tuple)
	})

	t.Run("wrong_type", func(t *testing.T) {
		_, err := d.Decompose("not a point")
		assert.True(t, IsProjectionError(err))
	})
}

func TestDescriptorEqual(t *testing.T) {
	d := pointDescriptor(t)

	eq, err := d.Equal(point{Y: ptr("1"), Z: -100, X: ptr(10)}, point{Y: ptr("1"), Z: -100, X: ptr(10)})
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = d.Equal(point{Y: ptr("1"), Z: -100}, point{Y: ptr("1"), Z: -100, X: ptr(10)})
	require.NoError(t, err)
	assert.False(t, eq)

	eq, err = d.Equal(nil, nil)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = d.Equal(nil, point{})
	require.NoError(t, err)
	assert.False(t, eq)
}
