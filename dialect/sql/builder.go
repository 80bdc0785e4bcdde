package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/structcol/dialect"
)

// Builder is a minimal dialect-aware statement builder: it tracks bound
// arguments and renders the matching placeholder style ($n for PostgreSQL,
// ? elsewhere), and quotes identifiers per dialect.
type Builder struct {
	sb      strings.Builder
	dialect string
	args    []any
}

// NewBuilder returns a Builder for the given dialect.
func NewBuilder(dialect string) *Builder {
	return &Builder{dialect: dialect}
}

// Dialect returns the dialect the builder renders for.
func (b *Builder) Dialect() string { return b.dialect }

// WriteString appends raw SQL.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Ident appends a quoted identifier.
func (b *Builder) Ident(name string) *Builder {
	b.sb.WriteString(b.Quote(name))
	return b
}

// Quote returns the identifier quoted for the dialect.
func (b *Builder) Quote(name string) string {
	if b.dialect == dialect.MySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// Arg binds a value and appends its placeholder.
func (b *Builder) Arg(v any) *Builder {
	b.sb.WriteString(b.BindArg(v))
	return b
}

// BindArg binds a value and returns its placeholder without writing it, for
// callers that embed placeholders inside a larger expression.
func (b *Builder) BindArg(v any) string {
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

// Query returns the SQL string and the bound arguments.
func (b *Builder) Query() (string, []any) {
	return b.sb.String(), b.args
}
