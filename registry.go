package structcol

import (
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry holds the Descriptor for each registered value-object type, keyed
// both by the Go type and by the named database struct type. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	types  map[reflect.Type]*Descriptor
	names  map[string]*Descriptor
	group  singleflight.Group
	builds *MutableInt64
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		types:  make(map[reflect.Type]*Descriptor),
		names:  make(map[string]*Descriptor),
		builds: NewMutableInt64(0),
	}
}

// Register adds a pre-built descriptor. Registering a second descriptor for
// the same Go type or the same database struct type fails.
func (r *Registry) Register(d *Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(d)
}

func (r *Registry) register(d *Descriptor) error {
	if _, ok := r.names[d.dbType]; ok {
		return NewDescriptorError(d.dbType, "already registered")
	}
	if prev, ok := r.types[d.typ]; ok {
		return NewDescriptorError(d.dbType, "type %s already mapped to %q", d.typ, prev.dbType)
	}
	r.names[d.dbType] = d
	r.types[d.typ] = d
	return nil
}

// Lookup returns the descriptor registered for the type of prototype.
func (r *Registry) Lookup(prototype any) (*Descriptor, bool) {
	typ := reflect.TypeOf(prototype)
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[typ]
	return d, ok
}

// LookupDBType returns the descriptor registered against the named database
// struct type.
func (r *Registry) LookupDBType(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.names[name]
	return d, ok
}

// Descriptor returns the descriptor registered for dbType, building and
// registering it on first use. Concurrent callers for the same dbType share
// a single build.
func (r *Registry) Descriptor(dbType string, prototype any, opts ...Option) (*Descriptor, error) {
	r.mu.RLock()
	d, ok := r.names[dbType]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}
	v, err, _ := r.group.Do(dbType, func() (any, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if d, ok := r.names[dbType]; ok {
			return d, nil
		}
		d, err := NewDescriptor(dbType, prototype, opts...)
		if err != nil {
			return nil, err
		}
		if err := r.register(d); err != nil {
			return nil, err
		}
		r.builds.Increment()
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Descriptor), nil
}

// Builds returns how many descriptors this registry has built itself, as
// opposed to received via Register.
func (r *Registry) Builds() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.builds.Value()
}
