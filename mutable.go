package structcol

// MutableInt64 is a small mutable counter for callers that already hold a
// lock and do not need atomic operations. The Registry uses it to count
// descriptor builds under its own mutex.
type MutableInt64 struct {
	value int64
}

// NewMutableInt64 returns a counter starting at the given value.
func NewMutableInt64(value int64) *MutableInt64 {
	return &MutableInt64{value: value}
}

// Value returns the current value.
func (m *MutableInt64) Value() int64 {
	return m.value
}

// Set replaces the current value.
func (m *MutableInt64) Set(value int64) {
	m.value = value
}

// Increment increases the value by one.
func (m *MutableInt64) Increment() {
	m.value++
}

// Decrement decreases the value by one.
func (m *MutableInt64) Decrement() {
	m.value--
}

// GetAndIncrement returns the current value and then increases it by one.
func (m *MutableInt64) GetAndIncrement() int64 {
	v := m.value
	m.value++
	return v
}

// IncrementAndGet increases the value by one and returns the result.
func (m *MutableInt64) IncrementAndGet() int64 {
	m.value++
	return m.value
}

// Add increases the value by delta.
func (m *MutableInt64) Add(delta int64) {
	m.value += delta
}

// Clone returns an independent copy of the counter.
func (m *MutableInt64) Clone() *MutableInt64 {
	return &MutableInt64{value: m.value}
}
