package structcol

import (
	"encoding/json"
	"reflect"
	"strconv"
	"time"
)

// Instantiate constructs a value-object instance from raw column values in
// physical column order, as decoded from the structured database type. The
// tuple is re-projected into constructor order through the projection table
// computed at build time, so attributes of compatible type are never swapped
// when the physical order differs from the constructor order.
//
// A nil tuple, or an all-NULL tuple under the NullAbsent policy, yields the
// absent value (nil). Arity or type mismatches yield a ProjectionError.
func (d *Descriptor) Instantiate(values []any) (any, error) {
	if values == nil {
		return d.absent(), nil
	}
	if len(values) != len(d.phys) {
		return nil, NewProjectionError(d.dbType, "", "tuple has %d columns, descriptor has %d", len(values), len(d.phys))
	}
	allNull := true
	for _, v := range values {
		if v != nil {
			allNull = false
			break
		}
	}
	if allNull {
		return d.absent(), nil
	}
	args := make([]reflect.Value, len(d.phys))
	for p, raw := range values {
		attr := d.physicalAttr(p)
		target := attr.Type
		if d.ctor.IsValid() {
			target = d.ctor.Type().In(d.proj[p])
		}
		arg, err := d.convert(attr, raw, target)
		if err != nil {
			return nil, err
		}
		args[d.proj[p]] = arg
	}
	return d.construct(args)
}

// absent returns the policy-determined value for a NULL aggregate.
func (d *Descriptor) absent() any {
	if d.policy == NullZero {
		return reflect.New(d.typ).Elem().Interface()
	}
	return nil
}

// construct invokes the bound constructor, or sets fields directly in
// declaration order when no constructor was bound.
func (d *Descriptor) construct(args []reflect.Value) (any, error) {
	if !d.ctor.IsValid() {
		rv := reflect.New(d.typ).Elem()
		for i, attr := range d.attrs {
			rv.Field(attr.field).Set(args[i])
		}
		return rv.Interface(), nil
	}
	out := d.ctor.Call(args)
	if d.ctorHasErr && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// convert coerces a raw driver value to the target type. Text-protocol
// codecs decode every sub-column as a string, so numeric and boolean kinds
// accept their strconv forms as well.
func (d *Descriptor) convert(attr Attribute, raw any, target reflect.Type) (reflect.Value, error) {
	if raw == nil {
		if target.Kind() == reflect.Pointer || target.Kind() == reflect.Interface {
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, NewProjectionError(d.dbType, attr.Column, "NULL for non-nillable attribute %q", attr.Name)
	}
	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return d.convert(attr, nil, target)
		}
		return d.convert(attr, rv.Elem().Interface(), target)
	}
	if target.Kind() == reflect.Pointer {
		elem, err := d.convert(attr, raw, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}
	if n, ok := raw.(json.Number); ok {
		return d.convertString(attr, string(n), target)
	}
	if b, ok := raw.([]byte); ok {
		return d.convertString(attr, string(b), target)
	}
	if s, ok := raw.(string); ok && target.Kind() != reflect.String {
		return d.convertString(attr, s, target)
	}
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if isNumeric(rv.Kind()) && rv.CanConvert(target) {
			return rv.Convert(target), nil
		}
	case reflect.String:
		if rv.Kind() == reflect.String {
			return rv.Convert(target), nil
		}
	case reflect.Bool:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return reflect.ValueOf(rv.Int() != 0).Convert(target), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return reflect.ValueOf(rv.Uint() != 0).Convert(target), nil
		}
	}
	if _, ok := raw.(time.Time); ok && rv.CanConvert(target) {
		return rv.Convert(target), nil
	}
	return reflect.Value{}, NewProjectionError(d.dbType, attr.Column, "cannot convert %T to %s", raw, target)
}

// convertString parses a text-decoded sub-column into the target kind.
func (d *Descriptor) convertString(attr Attribute, s string, target reflect.Type) (reflect.Value, error) {
	switch target.Kind() {
	case reflect.String:
		return reflect.ValueOf(s).Convert(target), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// json.Number renders whole floats as "N" but jsons written by
			// other clients may carry a fraction.
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return reflect.Value{}, NewProjectionError(d.dbType, attr.Column, "parse %q as %s: %v", s, target, err)
			}
			n = int64(f)
		}
		return reflect.ValueOf(n).Convert(target), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return reflect.Value{}, NewProjectionError(d.dbType, attr.Column, "parse %q as %s: %v", s, target, err)
		}
		return reflect.ValueOf(n).Convert(target), nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return reflect.Value{}, NewProjectionError(d.dbType, attr.Column, "parse %q as %s: %v", s, target, err)
		}
		return reflect.ValueOf(f).Convert(target), nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}, NewProjectionError(d.dbType, attr.Column, "parse %q as %s: %v", s, target, err)
		}
		return reflect.ValueOf(b).Convert(target), nil
	case reflect.Slice:
		if target.Elem().Kind() == reflect.Uint8 {
			return reflect.ValueOf([]byte(s)).Convert(target), nil
		}
	}
	return reflect.Value{}, NewProjectionError(d.dbType, attr.Column, "cannot convert string to %s", target)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Reconstruct rebuilds a typed instance from a decoded column tuple.
// The second return value reports presence: it is false when the whole
// structured value is absent.
func Reconstruct[T any](d *Descriptor, values []any) (T, bool, error) {
	var zero T
	v, err := d.Instantiate(values)
	if err != nil {
		return zero, false, err
	}
	if v == nil {
		return zero, false, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, false, NewProjectionError(d.dbType, "", "descriptor yields %T, caller wants %T", v, zero)
	}
	return t, true, nil
}
