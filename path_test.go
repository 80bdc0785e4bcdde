package structcol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	p, err := ParsePath("the_point")
	require.NoError(t, err)
	assert.Equal(t, Path{Root: "the_point"}, p)

	p, err = ParsePath("the_point.y")
	require.NoError(t, err)
	assert.Equal(t, Path{Root: "the_point", Member: "y"}, p)

	for _, bad := range []string{"", ".", "a.", ".b", "a.b.c"} {
		_, err := ParsePath(bad)
		assert.Error(t, err, "path %q", bad)
	}
}

func TestResolveAssignmentsMembers(t *testing.T) {
	d := pointDescriptor(t)

	t.Run("single_member", func(t *testing.T) {
		r, err := d.ResolveAssignments("the_point", []Assignment{Assign("the_point.y", "pluto")})
		require.NoError(t, err)
		assert.False(t, r.Replace)
		require.Len(t, r.Members, 1)
		assert.Equal(t, "y", r.Members[0].Attr.Name)
		assert.Equal(t, "pluto", r.Members[0].Value)
	})

	t.Run("siblings_merge_in_physical_order", func(t *testing.T) {
		r, err := d.ResolveAssignments("the_point", []Assignment{
			Assign("the_point.z", int64(-300)),
			Assign("the_point.x", 5),
		})
		require.NoError(t, err)
		require.Len(t, r.Members, 2)
		// Physical order is x, y, z regardless of assignment order.
		assert.Equal(t, "x", r.Members[0].Attr.Name)
		assert.Equal(t, "z", r.Members[1].Attr.Name)
	})

	t.Run("member_null", func(t *testing.T) {
		r, err := d.ResolveAssignments("the_point", []Assignment{Assign("the_point.y", nil)})
		require.NoError(t, err)
		require.Len(t, r.Members, 1)
		assert.Nil(t, r.Members[0].Value)
	})
}

func TestResolveAssignmentsReplace(t *testing.T) {
	d := pointDescriptor(t)

	r, err := d.ResolveAssignments("the_point", []Assignment{
		Assign("the_point", point{Y: ptr("20"), Z: -200, X: ptr(2)}),
	})
	require.NoError(t, err)
	assert.True(t, r.Replace)
	assert.Equal(t, point{Y: ptr("20"), Z: -200, X: ptr(2)}, r.Value)

	// Root NULL is a valid whole-aggregate write.
	r, err = d.ResolveAssignments("the_point", []Assignment{Assign("the_point", nil)})
	require.NoError(t, err)
	assert.True(t, r.Replace)
	assert.Nil(t, r.Value)

	// Replacement values are validated before anything executes.
	_, err = d.ResolveAssignments("the_point", []Assignment{Assign("the_point", "bogus")})
	assert.True(t, IsProjectionError(err))
}

func TestResolveAssignmentsConflicts(t *testing.T) {
	d := pointDescriptor(t)

	cases := []struct {
		name string
		asgs []Assignment
	}{
		{"root_then_member", []Assignment{Assign("the_point", nil), Assign("the_point.y", "a")}},
		{"member_then_root", []Assignment{Assign("the_point.y", "a"), Assign("the_point", nil)}},
		{"root_twice", []Assignment{Assign("the_point", nil), Assign("the_point", point{})}},
		{"member_twice", []Assignment{Assign("the_point.y", "a"), Assign("the_point.y", "b")}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.ResolveAssignments("the_point", tt.asgs)
			require.Error(t, err)
			assert.True(t, IsConflict(err))
		})
	}
}

func TestResolveAssignmentsErrors(t *testing.T) {
	d := pointDescriptor(t)

	_, err := d.ResolveAssignments("the_point", nil)
	assert.Error(t, err)

	_, err = d.ResolveAssignments("the_point", []Assignment{Assign("other.y", 1)})
	assert.Error(t, err)

	_, err = d.ResolveAssignments("the_point", []Assignment{Assign("the_point.w", 1)})
	assert.True(t, IsDescriptorError(err))
}
