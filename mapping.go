package structcol

import (
	"context"
	stdsql "database/sql"
	"fmt"

	"github.com/syssam/structcol/codec"
	"github.com/syssam/structcol/dialect"
	"github.com/syssam/structcol/dialect/sql"
)

// Mapping binds a Descriptor to a concrete table location: the table, the
// id column, and the structured column holding the aggregate. It issues the
// SQL for inserting, loading and partially updating aggregate values, picking
// the update strategy the codec supports.
type Mapping struct {
	table    string
	idColumn string
	column   string
	desc     *Descriptor
	codec    codec.Codec
	layout   codec.Layout
}

// MappingOption configures a Mapping.
type MappingOption func(*Mapping)

// WithIDColumn overrides the id column name. The default is "id".
func WithIDColumn(name string) MappingOption {
	return func(m *Mapping) {
		m.idColumn = name
	}
}

// NewMapping binds d to the structured column of the given table.
func NewMapping(table, column string, d *Descriptor, c codec.Codec, opts ...MappingOption) (*Mapping, error) {
	if table == "" || column == "" {
		return nil, NewDescriptorError(d.DBType(), "mapping requires a table and a column")
	}
	m := &Mapping{
		table:    table,
		idColumn: "id",
		column:   column,
		desc:     d,
		codec:    c,
		layout:   codec.Layout{DBType: d.DBType(), Columns: d.Columns()},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Descriptor returns the bound descriptor.
func (m *Mapping) Descriptor() *Descriptor { return m.desc }

// Codec returns the bound codec.
func (m *Mapping) Codec() codec.Codec { return m.codec }

// Table returns the mapped table name.
func (m *Mapping) Table() string { return m.table }

// Column returns the structured column name.
func (m *Mapping) Column() string { return m.column }

// Insert stores a new row holding the aggregate value v under the given id.
// A nil v stores an absent aggregate (SQL NULL). Constraint violations are
// reported as a ConstraintError.
func (m *Mapping) Insert(ctx context.Context, drv dialect.ExecQuerier, id, v any) error {
	tuple, err := m.desc.Decompose(v)
	if err != nil {
		return err
	}
	stored, err := m.codec.Encode(m.layout, tuple)
	if err != nil {
		return err
	}
	b := sql.NewBuilder(m.dialect(drv))
	b.WriteString("INSERT INTO ").Ident(m.table).
		WriteString(" (").Ident(m.idColumn).WriteString(", ").Ident(m.column).
		WriteString(") VALUES (").WriteString(b.BindArg(id)).WriteString(", ").
		WriteString(m.bindStored(b, stored)).WriteString(")")
	query, args := b.Query()
	if err := drv.Exec(ctx, query, args, nil); err != nil {
		if sql.IsConstraintError(err) {
			return NewConstraintError(fmt.Sprintf("insert into %s", m.table), err)
		}
		return err
	}
	return nil
}

// Get loads the aggregate stored under the given id. A stored NULL yields the
// absent value of the descriptor's null policy. A missing row yields a
// NotFoundError.
func (m *Mapping) Get(ctx context.Context, drv dialect.ExecQuerier, id any) (any, error) {
	stored, err := m.get(ctx, drv, m.dialect(drv), id)
	if err != nil {
		return nil, err
	}
	tuple, err := m.codec.Decode(m.layout, stored)
	if err != nil {
		return nil, err
	}
	return m.desc.Instantiate(tuple)
}

// GetAs loads the aggregate stored under the given id as a concrete type.
// A stored NULL yields ErrAbsent, so callers that cannot represent absence
// do not silently receive a zero value.
func GetAs[T any](ctx context.Context, m *Mapping, drv dialect.ExecQuerier, id any) (T, error) {
	var zero T
	v, err := m.Get(ctx, drv, id)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, ErrAbsent
	}
	t, ok := v.(T)
	if !ok {
		return zero, NewProjectionError(m.desc.DBType(), "", "descriptor yields %T, caller wants %T", v, zero)
	}
	return t, nil
}

// get scans the raw stored column value of one row.
func (m *Mapping) get(ctx context.Context, drv dialect.ExecQuerier, dia string, id any) (any, error) {
	b := sql.NewBuilder(dia)
	b.WriteString("SELECT ").Ident(m.column).
		WriteString(" FROM ").Ident(m.table).
		WriteString(" WHERE ").Ident(m.idColumn).WriteString(" = ").Arg(id)
	query, args := b.Query()
	rows := &sql.Rows{}
	if err := drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, NewNotFoundError(m.table, id)
	}
	var stored any
	if err := rows.Scan(&stored); err != nil {
		return nil, err
	}
	return stored, rows.Err()
}

// Update applies the assignments of one update statement to the row with the
// given id and reports the number of affected rows. Assignments target the
// structured column ("col") or one of its members ("col.member"); member
// assignments leave unassigned siblings untouched. Conflicting assignment
// lists are rejected with a ConflictError before anything executes.
func (m *Mapping) Update(ctx context.Context, drv dialect.Driver, id any, asgs ...Assignment) (int, error) {
	resolved, err := m.desc.ResolveAssignments(m.column, asgs)
	if err != nil {
		return 0, err
	}
	if resolved.Replace {
		return m.replace(ctx, drv, drv.Dialect(), id, resolved.Value)
	}
	switch c := m.codec.(type) {
	case codec.SubColumnCodec:
		return m.updateSubColumns(ctx, drv, c, id, resolved.Members)
	case codec.InPlaceCodec:
		return m.updateInPlace(ctx, drv, c, id, resolved.Members)
	default:
		return m.updateReadModifyWrite(ctx, drv, id, resolved.Members)
	}
}

// replace writes a whole-aggregate value, or NULL for a nil value.
func (m *Mapping) replace(ctx context.Context, drv dialect.ExecQuerier, dia string, id, v any) (int, error) {
	tuple, err := m.desc.Decompose(v)
	if err != nil {
		return 0, err
	}
	stored, err := m.codec.Encode(m.layout, tuple)
	if err != nil {
		return 0, err
	}
	b := sql.NewBuilder(dia)
	b.WriteString("UPDATE ").Ident(m.table).
		WriteString(" SET ").Ident(m.column).WriteString(" = ").
		WriteString(m.bindStored(b, stored)).
		WriteString(" WHERE ").Ident(m.idColumn).WriteString(" = ").Arg(id)
	return m.exec(ctx, drv, b)
}

// updateSubColumns assigns each member natively, so the database rewrites
// only the targeted sub-columns.
func (m *Mapping) updateSubColumns(ctx context.Context, drv dialect.ExecQuerier, c codec.SubColumnCodec, id any, members []MemberWrite) (int, error) {
	b := sql.NewBuilder(m.dialect(drv))
	b.WriteString("UPDATE ").Ident(m.table).WriteString(" SET ")
	for i, w := range members {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.AssignExpr(b.Quote(m.column), w.Attr.Column, b.BindArg(w.Value)))
	}
	b.WriteString(" WHERE ").Ident(m.idColumn).WriteString(" = ").Arg(id)
	return m.exec(ctx, drv, b)
}

// updateInPlace mutates the stored document through the codec's in-place
// update function.
func (m *Mapping) updateInPlace(ctx context.Context, drv dialect.ExecQuerier, c codec.InPlaceCodec, id any, members []MemberWrite) (int, error) {
	b := sql.NewBuilder(m.dialect(drv))
	names := make([]string, len(members))
	binds := make([]string, len(members))
	for i, w := range members {
		names[i] = w.Attr.Column
		binds[i] = b.BindArg(w.Value)
	}
	b.WriteString("UPDATE ").Ident(m.table).
		WriteString(" SET ").Ident(m.column).WriteString(" = ").
		WriteString(c.UpdateExpr(b.Quote(m.column), names, binds)).
		WriteString(" WHERE ").Ident(m.idColumn).WriteString(" = ").Arg(id)
	return m.exec(ctx, drv, b)
}

// updateReadModifyWrite rewrites the whole aggregate inside a transaction for
// codecs the database cannot mutate in place. The read and the write share
// one transaction so the merge happens against a consistent snapshot.
func (m *Mapping) updateReadModifyWrite(ctx context.Context, drv dialect.Driver, id any, members []MemberWrite) (int, error) {
	tx, err := drv.Tx(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := m.readModifyWrite(ctx, tx, drv.Dialect(), id, members)
	if err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back: %v", err, rerr)
		}
		return 0, err
	}
	return affected, tx.Commit()
}

func (m *Mapping) readModifyWrite(ctx context.Context, tx dialect.ExecQuerier, dia string, id any, members []MemberWrite) (int, error) {
	stored, err := m.get(ctx, tx, dia, id)
	if err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	tuple, err := m.codec.Decode(m.layout, stored)
	if err != nil {
		return 0, err
	}
	if tuple == nil {
		// Member writes populate an absent aggregate.
		tuple = make([]any, len(m.layout.Columns))
	}
	pos := make(map[string]int, len(m.layout.Columns))
	for p, col := range m.layout.Columns {
		pos[col] = p
	}
	for _, w := range members {
		tuple[pos[w.Attr.Column]] = w.Value
	}
	// Rebuilding can fail on valid input: populating a NULL aggregate leaves
	// unassigned non-nillable members nil.
	v, err := m.desc.Instantiate(tuple)
	if err != nil {
		return 0, err
	}
	return m.replace(ctx, tx, dia, id, v)
}

// SelectMembers reads the named members of the aggregate stored under the
// given id, converted to the attribute types. Codecs with an addressable
// member expression read only the requested members; other codecs decode the
// whole aggregate and project.
func (m *Mapping) SelectMembers(ctx context.Context, drv dialect.ExecQuerier, id any, names ...string) ([]any, error) {
	attrs := make([]Attribute, len(names))
	for i, name := range names {
		attr, ok := m.desc.Attribute(name)
		if !ok {
			return nil, NewDescriptorError(m.desc.DBType(), "select references unknown attribute %q", name)
		}
		attrs[i] = attr
	}
	type memberExprer interface {
		MemberExpr(column, member string) string
	}
	c, ok := m.codec.(memberExprer)
	if !ok {
		return m.selectDecoded(ctx, drv, id, attrs)
	}
	b := sql.NewBuilder(m.dialect(drv))
	b.WriteString("SELECT ")
	for i, attr := range attrs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.MemberExpr(b.Quote(m.column), attr.Column))
	}
	b.WriteString(" FROM ").Ident(m.table).
		WriteString(" WHERE ").Ident(m.idColumn).WriteString(" = ").Arg(id)
	query, args := b.Query()
	rows := &sql.Rows{}
	if err := drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, NewNotFoundError(m.table, id)
	}
	raw := make([]any, len(attrs))
	ptrs := make([]any, len(attrs))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return m.convertMembers(attrs, raw)
}

// selectDecoded projects members out of the fully decoded aggregate.
func (m *Mapping) selectDecoded(ctx context.Context, drv dialect.ExecQuerier, id any, attrs []Attribute) ([]any, error) {
	stored, err := m.get(ctx, drv, m.dialect(drv), id)
	if err != nil {
		return nil, err
	}
	tuple, err := m.codec.Decode(m.layout, stored)
	if err != nil {
		return nil, err
	}
	raw := make([]any, len(attrs))
	if tuple != nil {
		pos := make(map[string]int, len(m.layout.Columns))
		for p, col := range m.layout.Columns {
			pos[col] = p
		}
		for i, attr := range attrs {
			raw[i] = tuple[pos[attr.Column]]
		}
	}
	return m.convertMembers(attrs, raw)
}

// convertMembers converts scanned member values to the attribute types.
// A NULL member projects to nil even for non-nillable attributes, as it does
// when the whole aggregate is NULL.
func (m *Mapping) convertMembers(attrs []Attribute, raw []any) ([]any, error) {
	out := make([]any, len(attrs))
	for i, attr := range attrs {
		if raw[i] == nil {
			out[i] = nil
			continue
		}
		v, err := m.desc.convert(attr, raw[i], attr.Type)
		if err != nil {
			return nil, err
		}
		out[i] = v.Interface()
	}
	return out, nil
}

// SelectAll loads every stored aggregate, ordered by id. Absent aggregates
// come back as the descriptor's absent value.
func (m *Mapping) SelectAll(ctx context.Context, drv dialect.ExecQuerier) ([]any, error) {
	b := sql.NewBuilder(m.dialect(drv))
	b.WriteString("SELECT ").Ident(m.column).
		WriteString(" FROM ").Ident(m.table).
		WriteString(" ORDER BY ").Ident(m.idColumn)
	query, args := b.Query()
	return m.NativeQuery(ctx, drv, query, args...)
}

// NativeQuery runs a caller-written query whose single result column is a
// stored aggregate and materializes each row through the codec and the
// descriptor's constructor. The query is executed as written; args follow the
// placeholder style of the driver's dialect.
func (m *Mapping) NativeQuery(ctx context.Context, drv dialect.ExecQuerier, query string, args ...any) ([]any, error) {
	rows := &sql.Rows{}
	if err := drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var stored any
		if err := rows.Scan(&stored); err != nil {
			return nil, err
		}
		tuple, err := m.codec.Decode(m.layout, stored)
		if err != nil {
			return nil, err
		}
		v, err := m.desc.Instantiate(tuple)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Delete removes the row with the given id and reports the affected count.
func (m *Mapping) Delete(ctx context.Context, drv dialect.ExecQuerier, id any) (int, error) {
	b := sql.NewBuilder(m.dialect(drv))
	b.WriteString("DELETE FROM ").Ident(m.table).
		WriteString(" WHERE ").Ident(m.idColumn).WriteString(" = ").Arg(id)
	return m.exec(ctx, drv, b)
}

// DeleteWhereNotNull removes every row holding a present aggregate and
// reports the affected count.
func (m *Mapping) DeleteWhereNotNull(ctx context.Context, drv dialect.ExecQuerier) (int, error) {
	b := sql.NewBuilder(m.dialect(drv))
	b.WriteString("DELETE FROM ").Ident(m.table).
		WriteString(" WHERE ").Ident(m.column).WriteString(" IS NOT NULL")
	return m.exec(ctx, drv, b)
}

// exec runs the built statement and reports the affected row count.
func (m *Mapping) exec(ctx context.Context, drv dialect.ExecQuerier, b *sql.Builder) (int, error) {
	query, args := b.Query()
	var res stdsql.Result
	if err := drv.Exec(ctx, query, args, &res); err != nil {
		if sql.IsConstraintError(err) {
			return 0, NewConstraintError(fmt.Sprintf("write to %s", m.table), err)
		}
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// bindStored binds an encoded aggregate value, casting it when the codec
// needs a database-side type.
func (m *Mapping) bindStored(b *sql.Builder, stored any) string {
	bind := b.BindArg(stored)
	if tc, ok := m.codec.(codec.TypedCodec); ok && stored != nil {
		return tc.BindExpr(m.layout, bind)
	}
	return bind
}

// dialect reports the dialect of the execution target. Plain execers that
// do not expose one get "?" placeholders and double-quoted identifiers.
func (m *Mapping) dialect(drv dialect.ExecQuerier) string {
	if d, ok := drv.(interface{ Dialect() string }); ok {
		return d.Dialect()
	}
	return dialect.SQLite
}
