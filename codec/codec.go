// Package codec implements the wire formats used to persist a struct
// value into a single database column. Each codec converts between the
// physical tuple of a struct value (its member values in declaration
// order) and the stored column representation. The composite codec
// targets native structured column types such as Postgres composite
// types, the json codec targets JSON columns, and the binary codec
// packs the tuple into a MessagePack blob.
package codec

import "fmt"

// Layout describes the column shape a codec operates on. DBType is the
// database-side type name of the structured column, and Columns holds
// the member column names in physical (declaration) order.
type Layout struct {
	DBType  string
	Columns []string
}

// Codec converts between a physical tuple and its stored column value.
// A nil tuple encodes to a nil stored value, and a nil stored value
// decodes to a nil tuple. Both stand for an absent aggregate (SQL NULL
// in the column).
type Codec interface {
	// Format reports the codec name, such as "composite" or "json".
	Format() string
	// Encode packs the tuple into a value the sql driver can bind.
	Encode(layout Layout, tuple []any) (any, error)
	// Decode unpacks a scanned column value back into a tuple ordered
	// by layout.Columns. Member values may come back as strings or
	// json.Number; callers convert them to the declared member types.
	Decode(layout Layout, stored any) ([]any, error)
}

// SubColumnCodec is implemented by codecs whose storage format lets the
// database address a member of the aggregate directly, so a partial
// update can assign one member without rewriting its siblings.
type SubColumnCodec interface {
	Codec
	// AssignExpr renders a SET clause fragment assigning bind to a
	// single member of column.
	AssignExpr(column, member, bind string) string
	// MemberExpr renders an expression selecting a single member of
	// column.
	MemberExpr(column, member string) string
}

// InPlaceCodec is implemented by codecs whose storage format supports
// in-place member mutation through a database function, such as
// json_set on JSON columns.
type InPlaceCodec interface {
	Codec
	// UpdateExpr renders an expression producing the column value with
	// the given members replaced by the given binds. members and binds
	// are parallel slices.
	UpdateExpr(column string, members, binds []string) string
	// MemberExpr renders an expression selecting a single member of
	// column.
	MemberExpr(column, member string) string
}

// TypedCodec is implemented by codecs whose bound value needs a cast to
// the database-side column type, such as composite text literals.
type TypedCodec interface {
	Codec
	// BindExpr wraps a placeholder with the cast required to bind an
	// encoded value to a column of layout.DBType.
	BindExpr(layout Layout, bind string) string
}

func arityError(format string, layout Layout, got int) error {
	return fmt.Errorf("codec: %s value for %q has %d members, want %d", format, layout.DBType, got, len(layout.Columns))
}
