package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSON encodes tuples as a JSON object keyed by member column name. It
// supports in-place member mutation through json_set, which both MySQL
// and SQLite provide, so partial updates rewrite only the targeted
// members.
type JSON struct{}

// Format implements Codec.
func (JSON) Format() string { return "json" }

// Encode implements Codec. NULL members are stored as JSON nulls so the
// stored object always carries every member key.
func (JSON) Encode(layout Layout, tuple []any) (any, error) {
	if tuple == nil {
		return nil, nil
	}
	if len(tuple) != len(layout.Columns) {
		return nil, arityError("json", layout, len(tuple))
	}
	obj := make(map[string]any, len(tuple))
	for i, col := range layout.Columns {
		obj[col] = tuple[i]
	}
	buf, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("codec: json value for %q: %w", layout.DBType, err)
	}
	return string(buf), nil
}

// Decode implements Codec. Numbers come back as json.Number so integer
// members keep full precision; missing keys decode to nil.
func (JSON) Decode(layout Layout, stored any) ([]any, error) {
	if stored == nil {
		return nil, nil
	}
	var buf []byte
	switch v := stored.(type) {
	case []byte:
		buf = v
	case string:
		buf = []byte(v)
	case json.RawMessage:
		buf = v
	default:
		return nil, fmt.Errorf("codec: json value for %q: unexpected type %T", layout.DBType, stored)
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("codec: json value for %q: %w", layout.DBType, err)
	}
	tuple := make([]any, len(layout.Columns))
	for i, col := range layout.Columns {
		tuple[i] = obj[col]
	}
	return tuple, nil
}

// UpdateExpr implements InPlaceCodec. The coalesce guards against a
// NULL column, which json_set would propagate instead of populating.
func (JSON) UpdateExpr(column string, members, binds []string) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "json_set(coalesce(%s, '{}')", column)
	for i, m := range members {
		fmt.Fprintf(&b, ", '$.%s', %s", m, binds[i])
	}
	b.WriteByte(')')
	return b.String()
}

// MemberExpr implements InPlaceCodec.
func (JSON) MemberExpr(column, member string) string {
	return fmt.Sprintf("%s ->> '$.%s'", column, member)
}
