package structcol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMutableInt64(t *testing.T) {
	m := NewMutableInt64(5)
	assert.Equal(t, int64(5), m.Value())

	m.Set(-100)
	assert.Equal(t, int64(-100), m.Value())

	m.Increment()
	assert.Equal(t, int64(-99), m.Value())

	assert.Equal(t, int64(-99), m.GetAndIncrement())
	assert.Equal(t, int64(-98), m.Value())

	assert.Equal(t, int64(-97), m.IncrementAndGet())
	assert.Equal(t, int64(-97), m.Value())

	m.Decrement()
	assert.Equal(t, int64(-98), m.Value())

	m.Add(100)
	assert.Equal(t, int64(2), m.Value())
}

func TestMutableInt64Clone(t *testing.T) {
	m := NewMutableInt64(7)
	c := m.Clone()
	c.Increment()
	assert.Equal(t, int64(7), m.Value())
	assert.Equal(t, int64(8), c.Value())
}
