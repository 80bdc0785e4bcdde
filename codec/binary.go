package codec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Binary packs tuples into a MessagePack map keyed by member column
// name, stored in a BLOB column. The database cannot address members of
// the blob, so partial updates go through a read, modify and rewrite of
// the whole aggregate inside a transaction.
type Binary struct{}

// Format implements Codec.
func (Binary) Format() string { return "binary" }

// Encode implements Codec.
func (Binary) Encode(layout Layout, tuple []any) (any, error) {
	if tuple == nil {
		return nil, nil
	}
	if len(tuple) != len(layout.Columns) {
		return nil, arityError("binary", layout, len(tuple))
	}
	obj := make(map[string]any, len(tuple))
	for i, col := range layout.Columns {
		obj[col] = tuple[i]
	}
	buf, err := msgpack.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("codec: binary value for %q: %w", layout.DBType, err)
	}
	return buf, nil
}

// Decode implements Codec.
func (Binary) Decode(layout Layout, stored any) ([]any, error) {
	if stored == nil {
		return nil, nil
	}
	buf, ok := stored.([]byte)
	if !ok {
		if s, oks := stored.(string); oks {
			buf = []byte(s)
		} else {
			return nil, fmt.Errorf("codec: binary value for %q: unexpected type %T", layout.DBType, stored)
		}
	}
	var obj map[string]any
	if err := msgpack.Unmarshal(buf, &obj); err != nil {
		return nil, fmt.Errorf("codec: binary value for %q: %w", layout.DBType, err)
	}
	tuple := make([]any, len(layout.Columns))
	for i, col := range layout.Columns {
		tuple[i] = obj[col]
	}
	return tuple, nil
}
