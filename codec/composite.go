package codec

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Composite encodes tuples in the text format of Postgres composite
// types: "(a,b,c)" with empty fields standing for NULL members. It
// supports native sub-column assignment, so partial updates touch only
// the targeted members.
type Composite struct{}

// Format implements Codec.
func (Composite) Format() string { return "composite" }

// Encode implements Codec.
func (Composite) Encode(layout Layout, tuple []any) (any, error) {
	if tuple == nil {
		return nil, nil
	}
	if len(tuple) != len(layout.Columns) {
		return nil, arityError("composite", layout, len(tuple))
	}
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range tuple {
		if i > 0 {
			b.WriteByte(',')
		}
		if v == nil {
			continue
		}
		s, err := compositeText(v)
		if err != nil {
			return nil, fmt.Errorf("codec: composite member %q: %w", layout.Columns[i], err)
		}
		writeCompositeField(&b, s)
	}
	b.WriteByte(')')
	return b.String(), nil
}

// Decode implements Codec. Members come back as strings (or nil for
// NULL); numeric and boolean members are converted by the caller.
func (Composite) Decode(layout Layout, stored any) ([]any, error) {
	if stored == nil {
		return nil, nil
	}
	var s string
	switch v := stored.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return nil, fmt.Errorf("codec: composite value for %q: unexpected type %T", layout.DBType, stored)
	}
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("codec: composite value for %q: malformed literal %q", layout.DBType, s)
	}
	fields, err := splitComposite(s[1 : len(s)-1])
	if err != nil {
		return nil, fmt.Errorf("codec: composite value for %q: %w", layout.DBType, err)
	}
	if len(fields) != len(layout.Columns) {
		return nil, arityError("composite", layout, len(fields))
	}
	return fields, nil
}

// AssignExpr implements SubColumnCodec. Postgres allows assigning a
// composite member directly in a SET clause.
func (Composite) AssignExpr(column, member, bind string) string {
	return fmt.Sprintf("%s.%s = %s", column, member, bind)
}

// MemberExpr implements SubColumnCodec.
func (Composite) MemberExpr(column, member string) string {
	return fmt.Sprintf("(%s).%s", column, member)
}

// BindExpr implements TypedCodec. Encoded literals are text and need a
// cast to the composite type when bound.
func (Composite) BindExpr(layout Layout, bind string) string {
	return bind + "::" + layout.DBType
}

// compositeText renders a single member value as composite field text.
func compositeText(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		if v {
			return "t", nil
		}
		return "f", nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		if rv.Bool() {
			return "t", nil
		}
		return "f", nil
	}
	return "", fmt.Errorf("unsupported member type %T", v)
}

// writeCompositeField writes s, quoting it when it contains characters
// that are special in the composite text format. The empty string must
// be quoted to distinguish it from NULL.
func writeCompositeField(b *strings.Builder, s string) {
	if s != "" && !strings.ContainsAny(s, `,()"\ `) {
		b.WriteString(s)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			b.WriteString(`""`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('"')
}

// splitComposite parses the body of a composite literal (the text
// between the outer parentheses) into one entry per field. Unquoted
// empty fields decode to nil.
func splitComposite(body string) ([]any, error) {
	var fields []any
	i := 0
	for {
		if i < len(body) && body[i] == '"' {
			var sb strings.Builder
			i++
			closed := false
			for i < len(body) {
				switch body[i] {
				case '"':
					if i+1 < len(body) && body[i+1] == '"' {
						sb.WriteByte('"')
						i += 2
						continue
					}
					i++
					closed = true
				case '\\':
					if i+1 >= len(body) {
						return nil, fmt.Errorf("dangling escape")
					}
					sb.WriteByte(body[i+1])
					i += 2
					continue
				default:
					sb.WriteByte(body[i])
					i++
					continue
				}
				break
			}
			if !closed {
				return nil, fmt.Errorf("unterminated quoted field")
			}
			fields = append(fields, sb.String())
		} else {
			start := i
			for i < len(body) && body[i] != ',' {
				i++
			}
			raw := body[start:i]
			if raw == "" {
				fields = append(fields, nil)
			} else {
				fields = append(fields, raw)
			}
		}
		if i == len(body) {
			return fields, nil
		}
		if body[i] != ',' {
			return nil, fmt.Errorf("unexpected character %q at offset %d", body[i], i)
		}
		i++
	}
}
