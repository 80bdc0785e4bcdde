// Package structcol maps immutable Go value objects to database-native
// structured (composite/aggregate) column types.
//
// A Descriptor describes how a value-object type is laid out inside a single
// structured column: its attributes, their sub-column names, the physical
// column order, and the constructor used to rebuild instances from decoded
// column tuples. Descriptors are registered against a named database struct
// type (e.g. "my_point_type") in a Registry, keyed by the Go type.
//
// A Mapping binds a Descriptor and a codec to a table and executes inserts,
// reads, whole-value replacements and partial (sub-column) updates through
// the dialect driver layer:
//
//	desc, err := structcol.NewDescriptor("my_point_type", Point{},
//	    structcol.WithConstructor(NewPoint, "y", "z", "x"),
//	    structcol.WithColumnOrder("x", "y", "z"),
//	)
//	m, err := structcol.NewMapping("holders", "the_point", desc, codec.JSON{})
//	n, err := m.Update(ctx, drv, id,
//	    structcol.Assign("the_point.y", nil),
//	    structcol.Assign("the_point.z", 0),
//	)
//
// Partial updates never disturb unassigned sibling sub-columns. Depending on
// the codec's storage form this is done with native sub-column assignment,
// an in-place SQL expression, or a read-modify-write inside a transaction.
package structcol
