package alabq

import (
	"maps"
	"slices"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
	"github.com/hlop3z/alabq/internal/engine"
	"github.com/hlop3z/alabq/internal/where"
)

// Method is a custom model method. It receives the model it was called on,
// with that model's filter and connection.
type Method func(m Model, args ...any) (any, error)

// Options customise a model.
type Options struct {
	// Format rewrites every result row, unless the query is Raw.
	Format func(Row) Row

	// Methods are reachable through Call, ahead of the built-in methods.
	Methods map[string]Method

	// Where is ANDed with the filter set by Model.Where on every statement.
	Where any
}

func (o Options) clone() Options {
	o.Methods = maps.Clone(o.Methods)
	return o
}

// Model is an immutable handle on one table. Every method that changes it
// returns a new Model.
type Model struct {
	b      *Builder
	conn   Conn
	table  *ast.TableDef
	opts   Options
	filter any
}

// Table returns the table name.
func (m Model) Table() string {
	if m.table == nil {
		return ""
	}
	return m.table.Name
}

// Columns returns the table's column names in declaration order.
func (m Model) Columns() []string {
	if m.table == nil {
		return nil
	}
	return m.table.ColumnNames()
}

// Filter returns the filter set by Where (without the default Where).
func (m Model) Filter() any {
	return m.filter
}

// ModelFilter returns the filter statements of this model apply: the
// default Where ANDed with the filter set by Where. A Model placed in a
// With value constrains the join by it.
func (m Model) ModelFilter() any {
	switch {
	case m.opts.Where == nil:
		return m.filter
	case m.filter == nil:
		return m.opts.Where
	}
	return where.All{m.opts.Where, m.filter}
}

// Where returns a model filtered by value. It replaces, never merges with,
// a previous Where. value is a Map, a map[string]any or an Expr.
func (m Model) Where(value any) Model {
	m.filter = value
	return m
}

// FindMany returns a query for every matching row.
func (m Model) FindMany() Query[[]Row] {
	return Query[[]Row]{m: m}
}

// FindFirst returns a query for the first matching row, or nil.
func (m Model) FindFirst() Query[Row] {
	return Query[Row]{m: m, st: QueryState{First: true}}
}

// Insert returns a mutation inserting rows.
func (m Model) Insert(rows ...Row) Mutation {
	return Mutation{m: m, kind: opInsert, rows: rows}
}

// Update returns a mutation setting the fields of set on every matching row.
// Without a filter every row is updated.
func (m Model) Update(set Row) Mutation {
	return Mutation{m: m, kind: opUpdate, set: set}
}

// Delete returns a mutation deleting every matching row.
// Without a filter every row is deleted.
func (m Model) Delete() Mutation {
	return Mutation{m: m, kind: opDelete}
}

// Upsert returns a mutation inserting u.Insert and updating on conflict.
func (m Model) Upsert(u Upsert) Mutation {
	return Mutation{m: m, kind: opUpsert, upsert: &u}
}

// Include returns value unchanged. It marks a With value or a nested
// projection built for this model.
func (m Model) Include(value any) any {
	return value
}

// Extend returns a model with opts overlaid: methods are added (replacing
// same-named ones), Format and Where replace the current ones when set.
func (m Model) Extend(opts Options) Model {
	methods := maps.Clone(m.opts.Methods)
	if methods == nil && len(opts.Methods) > 0 {
		methods = make(map[string]Method, len(opts.Methods))
	}
	maps.Copy(methods, opts.Methods)
	m.opts.Methods = methods
	if opts.Format != nil {
		m.opts.Format = opts.Format
	}
	if opts.Where != nil {
		m.opts.Where = opts.Where
	}
	return m
}

// DB returns a model that runs on conn, typically a *sql.Tx.
func (m Model) DB(conn Conn) Model {
	m.conn = conn
	return m
}

// Methods returns the names of the custom methods.
func (m Model) Methods() []string {
	names := slices.Collect(maps.Keys(m.opts.Methods))
	slices.Sort(names)
	return names
}

// builtins are reachable through Call when no custom method has the name.
var builtins = map[string]func(m Model, args []any) (any, error){
	"where": func(m Model, args []any) (any, error) {
		if len(args) != 1 {
			return nil, callArity("where", 1, len(args))
		}
		return m.Where(args[0]), nil
	},
	"findMany": func(m Model, args []any) (any, error) {
		return m.FindMany(), nil
	},
	"findFirst": func(m Model, args []any) (any, error) {
		return m.FindFirst(), nil
	},
	"insert": func(m Model, args []any) (any, error) {
		rows := make([]Row, 0, len(args))
		for _, a := range args {
			switch v := a.(type) {
			case Row:
				rows = append(rows, v)
			case []Row:
				rows = append(rows, v...)
			default:
				return nil, callArg("insert", "Row or []Row", a)
			}
		}
		return m.Insert(rows...), nil
	},
	"update": func(m Model, args []any) (any, error) {
		if len(args) != 1 {
			return nil, callArity("update", 1, len(args))
		}
		set, ok := args[0].(Row)
		if !ok {
			return nil, callArg("update", "Row", args[0])
		}
		return m.Update(set), nil
	},
	"delete": func(m Model, args []any) (any, error) {
		return m.Delete(), nil
	},
	"upsert": func(m Model, args []any) (any, error) {
		if len(args) != 1 {
			return nil, callArity("upsert", 1, len(args))
		}
		u, ok := args[0].(Upsert)
		if !ok {
			return nil, callArg("upsert", "Upsert", args[0])
		}
		return m.Upsert(u), nil
	},
	"include": func(m Model, args []any) (any, error) {
		if len(args) != 1 {
			return nil, callArity("include", 1, len(args))
		}
		return m.Include(args[0]), nil
	},
}

// Call invokes a method by name: custom methods first, then the built-in
// where, findMany, findFirst, insert, update, delete, upsert and include.
func (m Model) Call(name string, args ...any) (any, error) {
	if fn, ok := m.opts.Methods[name]; ok {
		return fn(m, args...)
	}
	if fn, ok := builtins[name]; ok {
		return fn(m, args)
	}
	known := append(m.Methods(), slices.Sorted(maps.Keys(builtins))...)
	e := alerr.New(alerr.ErrInvalidValue, "unknown model method").
		WithTable(m.Table()).
		With("method", name)
	if s := alerr.SuggestSimilar(name, known); s != "" {
		e.WithHelp(s)
	}
	return nil, e
}

func callArity(method string, want, got int) error {
	return alerr.Newf(alerr.ErrInvalidValue, "%s takes %d argument(s), got %d", method, want, got)
}

func callArg(method, want string, got any) error {
	return alerr.Newf(alerr.ErrInvalidValue, "%s expects %s, got %T", method, want, got)
}

// runner binds the model's connection to the builder's dialect and logger.
func (m Model) runner() (*engine.Runner, error) {
	if m.b == nil || m.table == nil {
		return nil, alerr.New(alerr.ErrConfig, "model was not created by a Builder")
	}
	r := engine.NewRunner(m.conn, m.b.dialect, m.b.logger)
	if r == nil {
		return nil, alerr.New(alerr.ErrConfig, "model has no database connection").
			WithTable(m.table.Name)
	}
	return r, nil
}

// compileFilter compiles ModelFilter against the base table name.
func (m Model) compileFilter() (Expr, error) {
	return where.CompileWhere(where.NewSource(m.table, ""), m.ModelFilter())
}
