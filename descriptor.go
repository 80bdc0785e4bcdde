package structcol

import (
	"reflect"

	"github.com/go-openapi/inflect"
)

// NullPolicy controls how an all-NULL column tuple is reconstructed.
type NullPolicy int

const (
	// NullAbsent yields the absent value (nil) for an all-NULL tuple, so
	// callers can distinguish "aggregate is NULL" from "aggregate present
	// with NULL members".
	NullAbsent NullPolicy = iota
	// NullZero yields an instance with zero-valued members instead.
	NullZero
)

// Attribute describes one persistent attribute of a value-object type: its
// logical name, the sub-column it maps to inside the structured column, and
// the Go field it is read from.
type Attribute struct {
	// Name is the logical attribute name, referenced by assignment paths
	// and constructor bindings.
	Name string
	// Column is the sub-column name within the database struct type.
	Column string
	// Type is the Go field type. Nillable attributes use pointer types.
	Type reflect.Type
	// Nillable reports whether the attribute can hold NULL.
	Nillable bool

	field int // struct field index
}

// Descriptor maps a value-object type to its structured-column layout: the
// ordered attribute list, the physical column order, and the constructor
// binding used to rebuild instances from decoded tuples. A Descriptor is
// immutable once built and safe for concurrent use.
type Descriptor struct {
	dbType     string
	typ        reflect.Type
	attrs      []Attribute    // declaration order
	byName     map[string]int // attribute name -> attrs index
	phys       []int          // physical position -> attrs index
	ctor       reflect.Value
	ctorHasErr bool
	proj       []int // physical position -> constructor argument index
	policy     NullPolicy
}

type descriptorConfig struct {
	ctor        any
	ctorOrder   []string
	columnOrder []string
	columns     map[string]string
	policy      NullPolicy
}

// Option configures a Descriptor build.
type Option func(*descriptorConfig)

// WithConstructor binds the function used to instantiate the value object
// from a decoded tuple. names declare the attribute each parameter receives,
// in parameter order. The name set must equal the attribute name set; the
// order is independent of both the declaration order and the physical column
// order. fn must return the value-object type, optionally with an error.
func WithConstructor(fn any, names ...string) Option {
	return func(c *descriptorConfig) {
		c.ctor = fn
		c.ctorOrder = names
	}
}

// WithColumnOrder declares the physical order of the sub-columns inside the
// database struct type. It must name every attribute exactly once. The
// default is attribute declaration order.
func WithColumnOrder(names ...string) Option {
	return func(c *descriptorConfig) {
		c.columnOrder = names
	}
}

// WithColumn overrides the sub-column name of a single attribute.
func WithColumn(attr, column string) Option {
	return func(c *descriptorConfig) {
		if c.columns == nil {
			c.columns = make(map[string]string)
		}
		c.columns[attr] = column
	}
}

// WithNullPolicy sets how an all-NULL tuple is reconstructed.
// The default is NullAbsent.
func WithNullPolicy(p NullPolicy) Option {
	return func(c *descriptorConfig) {
		c.policy = p
	}
}

// NewDescriptor builds a Descriptor for the value-object type of prototype,
// registered against the named database struct type. Attributes are derived
// from the exported struct fields in declaration order; attribute and
// sub-column names default to the snake_case form of the field name.
//
// The build fails with a DescriptorError if the constructor binding does not
// name exactly the attribute set, if parameter types do not line up, or if
// the column order is not a permutation of the attributes.
func NewDescriptor(dbType string, prototype any, opts ...Option) (*Descriptor, error) {
	cfg := &descriptorConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	typ := reflect.TypeOf(prototype)
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, NewDescriptorError(dbType, "prototype must be a struct, got %T", prototype)
	}
	d := &Descriptor{
		dbType: dbType,
		typ:    typ,
		byName: make(map[string]int),
		policy: cfg.policy,
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		name := inflect.Underscore(f.Name)
		if _, ok := d.byName[name]; ok {
			return nil, NewDescriptorError(dbType, "duplicate attribute %q", name)
		}
		column := name
		if c, ok := cfg.columns[name]; ok {
			column = c
		}
		d.byName[name] = len(d.attrs)
		d.attrs = append(d.attrs, Attribute{
			Name:     name,
			Column:   column,
			Type:     f.Type,
			Nillable: f.Type.Kind() == reflect.Pointer,
			field:    i,
		})
	}
	if len(d.attrs) == 0 {
		return nil, NewDescriptorError(dbType, "type %s has no exported fields", typ)
	}
	for attr := range cfg.columns {
		if _, ok := d.byName[attr]; !ok {
			return nil, NewDescriptorError(dbType, "column override for unknown attribute %q", attr)
		}
	}
	if err := d.bindColumnOrder(cfg.columnOrder); err != nil {
		return nil, err
	}
	if err := d.bindConstructor(cfg.ctor, cfg.ctorOrder); err != nil {
		return nil, err
	}
	return d, nil
}

// bindColumnOrder resolves the physical column order, defaulting to
// declaration order.
func (d *Descriptor) bindColumnOrder(order []string) error {
	if order == nil {
		d.phys = make([]int, len(d.attrs))
		for i := range d.attrs {
			d.phys[i] = i
		}
		return nil
	}
	if err := d.checkNameSet("column order", order); err != nil {
		return err
	}
	d.phys = make([]int, len(order))
	for p, name := range order {
		d.phys[p] = d.byName[name]
	}
	return nil
}

// bindConstructor validates the constructor binding and precomputes the
// projection table from physical column positions to constructor arguments.
// The table is built once here so that reads never resolve names per call and
// mismatches surface before any statement executes.
func (d *Descriptor) bindConstructor(fn any, order []string) error {
	if fn == nil {
		order = make([]string, len(d.attrs))
		for i, a := range d.attrs {
			order[i] = a.Name
		}
	} else {
		v := reflect.ValueOf(fn)
		t := v.Type()
		if t.Kind() != reflect.Func || t.IsVariadic() {
			return NewDescriptorError(d.dbType, "constructor must be a non-variadic func, got %T", fn)
		}
		switch t.NumOut() {
		case 1:
		case 2:
			if t.Out(1) != reflect.TypeOf((*error)(nil)).Elem() {
				return NewDescriptorError(d.dbType, "constructor second return value must be error")
			}
			d.ctorHasErr = true
		default:
			return NewDescriptorError(d.dbType, "constructor must return the value object, optionally with an error")
		}
		if t.Out(0) != d.typ {
			return NewDescriptorError(d.dbType, "constructor returns %s, want %s", t.Out(0), d.typ)
		}
		if t.NumIn() != len(order) {
			return NewDescriptorError(d.dbType, "constructor takes %d parameters, %d names declared", t.NumIn(), len(order))
		}
		if err := d.checkNameSet("instantiation order", order); err != nil {
			return err
		}
		for i, name := range order {
			attr := d.attrs[d.byName[name]]
			if !attr.Type.AssignableTo(t.In(i)) {
				return NewDescriptorError(d.dbType, "constructor parameter %d (%s) has type %s, attribute %q is %s",
					i, name, t.In(i), name, attr.Type)
			}
		}
		d.ctor = v
	}
	ctorIdx := make(map[string]int, len(order))
	for i, name := range order {
		ctorIdx[name] = i
	}
	d.proj = make([]int, len(d.phys))
	for p, ai := range d.phys {
		d.proj[p] = ctorIdx[d.attrs[ai].Name]
	}
	return nil
}

// checkNameSet verifies that names is a permutation of the attribute names.
func (d *Descriptor) checkNameSet(what string, names []string) error {
	if len(names) != len(d.attrs) {
		return NewDescriptorError(d.dbType, "%s names %d attributes, descriptor has %d", what, len(names), len(d.attrs))
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := d.byName[name]; !ok {
			return NewDescriptorError(d.dbType, "%s references unknown attribute %q", what, name)
		}
		if _, dup := seen[name]; dup {
			return NewDescriptorError(d.dbType, "%s references attribute %q twice", what, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// DBType returns the named database struct type.
func (d *Descriptor) DBType() string { return d.dbType }

// GoType returns the value-object type.
func (d *Descriptor) GoType() reflect.Type { return d.typ }

// NullPolicy returns the all-NULL tuple reconstruction policy.
func (d *Descriptor) NullPolicy() NullPolicy { return d.policy }

// Attributes returns the attributes in declaration order.
func (d *Descriptor) Attributes() []Attribute {
	attrs := make([]Attribute, len(d.attrs))
	copy(attrs, d.attrs)
	return attrs
}

// Attribute returns the attribute with the given name.
func (d *Descriptor) Attribute(name string) (Attribute, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Attribute{}, false
	}
	return d.attrs[i], true
}

// Columns returns the sub-column names in physical order.
func (d *Descriptor) Columns() []string {
	cols := make([]string, len(d.phys))
	for p, ai := range d.phys {
		cols[p] = d.attrs[ai].Column
	}
	return cols
}

// physicalAttr returns the attribute stored at the given physical position.
func (d *Descriptor) physicalAttr(p int) Attribute {
	return d.attrs[d.phys[p]]
}

// Decompose deconstructs a value-object instance into its raw column values
// in physical column order. Nillable attributes holding nil decompose to nil.
// A nil instance (the absent aggregate) decomposes to a nil tuple.
func (d *Descriptor) Decompose(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Type() != d.typ {
		return nil, NewProjectionError(d.dbType, "", "cannot decompose %T as %s", v, d.typ)
	}
	tuple := make([]any, len(d.phys))
	for p, ai := range d.phys {
		attr := d.attrs[ai]
		fv := rv.Field(attr.field)
		if attr.Nillable {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		tuple[p] = fv.Interface()
	}
	return tuple, nil
}

// Equal reports structural (attribute-wise) equality of two instances.
// Two absent values are equal; absent never equals a present instance.
func (d *Descriptor) Equal(a, b any) (bool, error) {
	ta, err := d.Decompose(a)
	if err != nil {
		return false, err
	}
	tb, err := d.Decompose(b)
	if err != nil {
		return false, err
	}
	if ta == nil || tb == nil {
		return ta == nil && tb == nil, nil
	}
	return reflect.DeepEqual(ta, tb), nil
}
