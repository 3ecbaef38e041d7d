// Package sqlgen provides dialect-aware SQL building: a Builder that
// accumulates statement text with bound arguments, predicate expressions, and
// SELECT/INSERT/UPDATE/DELETE statement values.
package sqlgen

import (
	"strings"

	"github.com/hlop3z/alabq/internal/dialect"
)

// Builder accumulates the SQL text and bound arguments of one statement.
// Placeholders are numbered in the order arguments are bound.
type Builder struct {
	dialect dialect.Dialect
	buf     strings.Builder
	args    []any
}

// New creates a new Builder for the specified dialect.
func New(d dialect.Dialect) *Builder {
	return &Builder{
		dialect: d,
	}
}

// Dialect returns the dialect of this builder.
func (b *Builder) Dialect() dialect.Dialect {
	return b.dialect
}

// Raw appends raw SQL to the buffer without any modification.
func (b *Builder) Raw(sql string) *Builder {
	b.buf.WriteString(sql)
	return b
}

// Ident appends a quoted identifier.
func (b *Builder) Ident(name string) *Builder {
	b.buf.WriteString(b.dialect.QuoteIdent(name))
	return b
}

// Idents appends a comma-separated list of quoted identifiers.
func (b *Builder) Idents(names ...string) *Builder {
	for i, name := range names {
		if i > 0 {
			b.buf.WriteString(", ")
		}
		b.Ident(name)
	}
	return b
}

// Arg binds v and appends its placeholder.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	b.buf.WriteString(b.dialect.Placeholder(len(b.args)))
	return b
}

// Operand appends v: expressions render themselves, anything else is bound.
func (b *Builder) Operand(v any) *Builder {
	if e, ok := v.(Expr); ok {
		e.WriteSQL(b)
		return b
	}
	return b.Arg(v)
}

// Expr appends e.
func (b *Builder) Expr(e Expr) *Builder {
	e.WriteSQL(b)
	return b
}

// Comma appends ", " to the buffer.
func (b *Builder) Comma() *Builder {
	b.buf.WriteString(", ")
	return b
}

// Space appends a space character to the buffer.
func (b *Builder) Space() *Builder {
	b.buf.WriteString(" ")
	return b
}

// String returns the accumulated SQL string.
func (b *Builder) String() string {
	return b.buf.String()
}

// Args returns the bound arguments in placeholder order.
func (b *Builder) Args() []any {
	return b.args
}

// fragment renders fn into a separate buffer that continues this builder's
// placeholder numbering, and returns the text. Bound args are kept.
func (b *Builder) fragment(fn func(sub *Builder)) string {
	sub := &Builder{dialect: b.dialect, args: b.args}
	fn(sub)
	b.args = sub.args
	return sub.String()
}

// Build renders e for dialect d and returns the SQL text and its arguments.
func Build(d dialect.Dialect, e Expr) (string, []any) {
	b := New(d)
	e.WriteSQL(b)
	return b.String(), b.Args()
}
