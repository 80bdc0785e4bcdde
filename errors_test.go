package structcol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorErrorPredicate(t *testing.T) {
	err := NewDescriptorError("my_point_type", "duplicate attribute %q", "y")
	assert.True(t, IsDescriptorError(err))
	assert.Contains(t, err.Error(), "my_point_type")
	assert.Contains(t, err.Error(), `"y"`)

	wrapped := fmt.Errorf("building registry: %w", err)
	assert.True(t, IsDescriptorError(wrapped))
	assert.False(t, IsDescriptorError(errors.New("other")))
	assert.False(t, IsDescriptorError(nil))
}

func TestProjectionErrorPredicate(t *testing.T) {
	err := NewProjectionError("my_point_type", "z", "NULL for non-nillable attribute %q", "z")
	assert.True(t, IsProjectionError(err))
	assert.Contains(t, err.Error(), "z")
	assert.True(t, IsProjectionError(fmt.Errorf("loading: %w", err)))
	assert.False(t, IsProjectionError(errors.New("other")))
}

func TestConflictErrorPredicate(t *testing.T) {
	err := NewConflictError("the_point", "the_point", "the_point.y")
	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "the_point")
	assert.True(t, IsConflict(fmt.Errorf("update: %w", err)))
	assert.False(t, IsConflict(errors.New("other")))
}

func TestConstraintErrorPredicate(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := NewConstraintError("insert into holders", cause)
	require.True(t, IsConstraintError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "insert into holders")
	assert.False(t, IsConstraintError(cause))
}

func TestNotFoundErrorPredicate(t *testing.T) {
	err := NewNotFoundError("holders", 7)
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "holders", err.Table())
	assert.Equal(t, 7, err.ID())
	assert.True(t, IsNotFound(fmt.Errorf("get: %w", err)))
	assert.False(t, IsNotFound(errors.New("other")))
}
