package sqlgen

import "strings"

// Expr is a fragment of SQL that can render itself into a Builder.
// Predicates, columns, values and whole statements are all expressions.
type Expr interface {
	WriteSQL(b *Builder)
}

// ----------------------------------------------------------------------------
// Columns and values
// ----------------------------------------------------------------------------

// Column references a column, qualified by a table name or alias when Table is set.
type Column struct {
	Table string
	Name  string
}

// Col returns a column reference.
func Col(table, name string) Column {
	return Column{Table: table, Name: name}
}

// WriteSQL renders "table"."name".
func (c Column) WriteSQL(b *Builder) {
	if c.Table != "" {
		b.Ident(c.Table).Raw(".")
	}
	b.Ident(c.Name)
}

type value struct{ v any }

func (v value) WriteSQL(b *Builder) { b.Arg(v.v) }

type defaultValue struct{}

func (defaultValue) WriteSQL(b *Builder) { b.Raw(b.dialect.DefaultValue()) }

// Default fills an INSERT column with the dialect's default marker.
func Default() Expr { return defaultValue{} }

// Value binds v as an argument.
func Value(v any) Expr {
	return value{v: v}
}

type rawExpr struct {
	sql  string
	args []any
}

// Raw returns an SQL fragment written as-is. Each '?' outside single-quoted
// literals binds the next argument; once the arguments run out, '?' is kept
// literally.
func Raw(sql string, args ...any) Expr {
	return rawExpr{sql: sql, args: args}
}

func (r rawExpr) WriteSQL(b *Builder) {
	if len(r.args) == 0 {
		b.Raw(r.sql)
		return
	}
	next := 0
	inQuote := false
	start := 0
	for i := 0; i < len(r.sql); i++ {
		switch c := r.sql[i]; {
		case c == '\'':
			inQuote = !inQuote
		case c == '?' && !inQuote && next < len(r.args):
			b.Raw(r.sql[start:i])
			b.Operand(r.args[next])
			next++
			start = i + 1
		}
	}
	b.Raw(r.sql[start:])
}

// ----------------------------------------------------------------------------
// Comparisons
// ----------------------------------------------------------------------------

type compare struct {
	left  Expr
	op    string
	right any
}

func (c compare) WriteSQL(b *Builder) {
	c.left.WriteSQL(b)
	b.Raw(" " + c.op + " ")
	b.Operand(c.right)
}

// Eq renders left = v. v may be an Expr (e.g. another column).
func Eq(left Expr, v any) Expr { return compare{left, "=", v} }

// Ne renders left <> v.
func Ne(left Expr, v any) Expr { return compare{left, "<>", v} }

// Gt renders left > v.
func Gt(left Expr, v any) Expr { return compare{left, ">", v} }

// Gte renders left >= v.
func Gte(left Expr, v any) Expr { return compare{left, ">=", v} }

// Lt renders left < v.
func Lt(left Expr, v any) Expr { return compare{left, "<", v} }

// Lte renders left <= v.
func Lte(left Expr, v any) Expr { return compare{left, "<=", v} }

// Like renders left LIKE pattern.
func Like(left Expr, pattern any) Expr { return compare{left, "LIKE", pattern} }

// NotLike renders left NOT LIKE pattern.
func NotLike(left Expr, pattern any) Expr { return compare{left, "NOT LIKE", pattern} }

type ilike struct {
	left    Expr
	pattern any
	negate  bool
}

func (l ilike) WriteSQL(b *Builder) {
	left := b.fragment(func(sub *Builder) { l.left.WriteSQL(sub) })
	right := b.fragment(func(sub *Builder) { sub.Operand(l.pattern) })
	if l.negate {
		b.Raw("NOT (" + b.dialect.ILike(left, right) + ")")
		return
	}
	b.Raw(b.dialect.ILike(left, right))
}

// ILike renders a case-insensitive match in the dialect's spelling.
func ILike(left Expr, pattern any) Expr { return ilike{left: left, pattern: pattern} }

// NotILike negates ILike.
func NotILike(left Expr, pattern any) Expr { return ilike{left: left, pattern: pattern, negate: true} }

type isNull struct {
	left   Expr
	negate bool
}

func (n isNull) WriteSQL(b *Builder) {
	n.left.WriteSQL(b)
	if n.negate {
		b.Raw(" IS NOT NULL")
		return
	}
	b.Raw(" IS NULL")
}

// IsNull renders left IS NULL.
func IsNull(left Expr) Expr { return isNull{left: left} }

// IsNotNull renders left IS NOT NULL.
func IsNotNull(left Expr) Expr { return isNull{left: left, negate: true} }

type inList struct {
	left   Expr
	values []any
	negate bool
}

func (in inList) WriteSQL(b *Builder) {
	// Membership in the empty set is never true.
	if len(in.values) == 0 {
		if in.negate {
			b.Raw("1 = 1")
		} else {
			b.Raw("1 = 0")
		}
		return
	}
	in.left.WriteSQL(b)
	if in.negate {
		b.Raw(" NOT IN (")
	} else {
		b.Raw(" IN (")
	}
	for i, v := range in.values {
		if i > 0 {
			b.Comma()
		}
		b.Operand(v)
	}
	b.Raw(")")
}

// In renders left IN (...). An empty list never matches.
func In(left Expr, values []any) Expr { return inList{left: left, values: values} }

// NotIn renders left NOT IN (...). An empty list always matches.
func NotIn(left Expr, values []any) Expr { return inList{left: left, values: values, negate: true} }

type between struct {
	left   Expr
	lo, hi any
	negate bool
}

func (bt between) WriteSQL(b *Builder) {
	bt.left.WriteSQL(b)
	if bt.negate {
		b.Raw(" NOT BETWEEN ")
	} else {
		b.Raw(" BETWEEN ")
	}
	b.Operand(bt.lo)
	b.Raw(" AND ")
	b.Operand(bt.hi)
}

// Between renders left BETWEEN lo AND hi (inclusive).
func Between(left Expr, lo, hi any) Expr { return between{left: left, lo: lo, hi: hi} }

// NotBetween renders left NOT BETWEEN lo AND hi.
func NotBetween(left Expr, lo, hi any) Expr { return between{left: left, lo: lo, hi: hi, negate: true} }

// ----------------------------------------------------------------------------
// Logical operators
// ----------------------------------------------------------------------------

type logical struct {
	op    string
	items []Expr
}

func (l logical) WriteSQL(b *Builder) {
	b.Raw("(")
	for i, e := range l.items {
		if i > 0 {
			b.Raw(" " + l.op + " ")
		}
		e.WriteSQL(b)
	}
	b.Raw(")")
}

func combine(op string, exprs []Expr) Expr {
	items := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			items = append(items, e)
		}
	}
	switch len(items) {
	case 0:
		return nil
	case 1:
		return items[0]
	}
	return logical{op: op, items: items}
}

// And combines the non-nil expressions with AND.
// Returns nil when none are given and the sole expression when only one is.
func And(exprs ...Expr) Expr { return combine("AND", exprs) }

// Or combines the non-nil expressions with OR, with the same nil rules as And.
func Or(exprs ...Expr) Expr { return combine("OR", exprs) }

type not struct{ e Expr }

func (n not) WriteSQL(b *Builder) {
	b.Raw("NOT (")
	n.e.WriteSQL(b)
	b.Raw(")")
}

// Not negates e. Returns nil for a nil expression.
func Not(e Expr) Expr {
	if e == nil {
		return nil
	}
	return not{e: e}
}

// ----------------------------------------------------------------------------
// Operator lookup
// ----------------------------------------------------------------------------

// ComparisonFunc builds a predicate from a left operand and a right value.
type ComparisonFunc func(left Expr, v any) Expr

var comparisons = map[string]ComparisonFunc{
	"eq":       Eq,
	"=":        Eq,
	"ne":       Ne,
	"<>":       Ne,
	"!=":       Ne,
	"gt":       Gt,
	">":        Gt,
	"gte":      Gte,
	">=":       Gte,
	"lt":       Lt,
	"<":        Lt,
	"lte":      Lte,
	"<=":       Lte,
	"like":     Like,
	"notlike":  NotLike,
	"ilike":    ILike,
	"notilike": NotILike,
	"in":       func(l Expr, v any) Expr { return In(l, toList(v)) },
	"nin":      func(l Expr, v any) Expr { return NotIn(l, toList(v)) },
	"notin":    func(l Expr, v any) Expr { return NotIn(l, toList(v)) },
}

// Comparison returns the predicate builder registered for a named or symbolic
// operator. Names are matched case-insensitively.
func Comparison(op string) (ComparisonFunc, bool) {
	fn, ok := comparisons[strings.ToLower(strings.TrimSpace(op))]
	return fn, ok
}

func toList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

type excluded struct{ name string }

func (e excluded) WriteSQL(b *Builder) { b.Raw(b.dialect.ExcludedColumn(e.name)) }

// Excluded references the value proposed for column name by the INSERT of an
// upsert, in the dialect's spelling.
func Excluded(name string) Expr { return excluded{name: name} }
