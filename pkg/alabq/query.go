package alabq

import (
	"context"
	"maps"
	"slices"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
	"github.com/hlop3z/alabq/internal/engine"
	"github.com/hlop3z/alabq/internal/joins"
	"github.com/hlop3z/alabq/internal/projection"
	"github.com/hlop3z/alabq/internal/sqlgen"
)

// Order is one ORDER BY term on a base-table column.
type Order struct {
	Column string
	Desc   bool
}

// Asc orders by column ascending.
func Asc(column string) Order { return Order{Column: column} }

// Desc orders by column descending.
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// QueryState is what a query will run, as reported by Debug.
type QueryState struct {
	Table   string
	Where   any
	With    any
	Select  Spec
	Exclude Spec
	Raw     bool
	First   bool
	Limit   int
	Offset  int
	OrderBy []Order
}

// Query is a deferred read. T is []Row for FindMany and Row for FindFirst.
// Every method returns a new Query; Exec runs it, again on every call.
type Query[T any] struct {
	m  Model
	st QueryState
}

// With loads the named relations into each row.
func (q Query[T]) With(with any) Query[T] {
	q.st.With = with
	return q
}

// Select keeps only the fields named by spec. With relations loaded, nested
// specs apply to them.
func (q Query[T]) Select(spec Spec) Query[T] {
	q.st.Select = maps.Clone(spec)
	return q
}

// Exclude drops the fields named by spec. It applies after Select.
func (q Query[T]) Exclude(spec Spec) Query[T] {
	q.st.Exclude = maps.Clone(spec)
	return q
}

// Raw skips the model's Format.
func (q Query[T]) Raw() Query[T] {
	q.st.Raw = true
	return q
}

// Limit caps the number of base rows. Ignored by FindFirst.
func (q Query[T]) Limit(n int) Query[T] {
	q.st.Limit = n
	return q
}

// Offset skips base rows.
func (q Query[T]) Offset(n int) Query[T] {
	q.st.Offset = n
	return q
}

// OrderBy sets the base-row order, replacing any previous order.
func (q Query[T]) OrderBy(orders ...Order) Query[T] {
	q.st.OrderBy = slices.Clone(orders)
	return q
}

// Debug returns the state the query would run with. Nothing is executed.
func (q Query[T]) Debug() QueryState {
	st := q.st
	st.Table = q.m.Table()
	st.Where = q.m.ModelFilter()
	return st
}

// ToSQL renders the statement without running it.
func (q Query[T]) ToSQL() (string, []any, error) {
	if q.m.b == nil || q.m.table == nil {
		return "", nil, alerr.New(alerr.ErrConfig, "model was not created by a Builder")
	}
	stmt, err := q.compile()
	if err != nil {
		return "", nil, err
	}
	query, args := stmt.Render(q.m.b.dialect)
	return query, args, nil
}

// Exec runs the query. FindMany yields a non-nil []Row; FindFirst yields
// the first Row, or nil when nothing matched.
func (q Query[T]) Exec(ctx context.Context) (T, error) {
	var zero T
	r, err := q.m.runner()
	if err != nil {
		return zero, err
	}

	var result any
	if withEmpty(q.st.With) {
		result, err = q.execFlat(ctx, r)
	} else {
		result, err = q.execJoined(ctx, r)
	}
	if err != nil {
		return zero, err
	}

	if !q.st.Raw && q.m.opts.Format != nil {
		result = formatRows(result, q.m.opts.Format)
	}
	out, _ := result.(T)
	return out, nil
}

func (q Query[T]) execFlat(ctx context.Context, r *engine.Runner) (any, error) {
	stmt, err := q.compile()
	if err != nil {
		return nil, err
	}
	sel := stmt.Expr.(*sqlgen.Select)
	columns := make([]string, len(sel.Items))
	kinds := make([]ast.Kind, len(sel.Items))
	for i, item := range sel.Items {
		columns[i] = item.Expr.(sqlgen.Column).Name
		kinds[i] = q.m.table.GetColumn(columns[i]).Kind
	}

	res, err := r.Query(ctx, stmt, kinds)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(res.Rows))
	for i, values := range res.Rows {
		row := make(Row, len(columns))
		for j, c := range columns {
			row[c] = values[j]
		}
		rows[i] = row
	}

	if q.st.First {
		if len(rows) == 0 {
			return Row(nil), nil
		}
		return rows[0], nil
	}
	return rows, nil
}

func (q Query[T]) execJoined(ctx context.Context, r *engine.Runner) (any, error) {
	params, err := q.joinParams()
	if err != nil {
		return nil, err
	}
	params.Runner = r
	result, err := joins.Execute(ctx, params)
	if err != nil {
		return nil, err
	}
	result = projection.ApplySelect(result, q.st.Select)
	return projection.ApplyExclude(result, q.st.Exclude), nil
}

// compile builds the statement Exec runs.
func (q Query[T]) compile() (engine.Statement, error) {
	if !withEmpty(q.st.With) {
		params, err := q.joinParams()
		if err != nil {
			return engine.Statement{}, err
		}
		jq, err := joins.Prepare(params)
		if err != nil {
			return engine.Statement{}, err
		}
		return engine.Statement{Op: "select rows with relations", Table: q.m.table.Name, Expr: jq.Stmt}, nil
	}

	filter, err := q.m.compileFilter()
	if err != nil {
		return engine.Statement{}, err
	}
	page, err := q.page()
	if err != nil {
		return engine.Statement{}, err
	}

	base := sqlgen.Table{Name: q.m.table.Name}
	columns := projection.BuildSelectProjection(q.m.table.ColumnNames(), q.st.Select, q.st.Exclude)
	sel := &sqlgen.Select{
		From:    base,
		Where:   filter,
		OrderBy: page.OrderBy,
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	for _, c := range columns {
		sel.Items = append(sel.Items, sqlgen.SelectItem{Expr: base.Col(c)})
	}
	return engine.Statement{Op: "select rows", Table: q.m.table.Name, Expr: sel}, nil
}

func (q Query[T]) joinParams() (joins.Params, error) {
	filter, err := q.m.compileFilter()
	if err != nil {
		return joins.Params{}, err
	}
	page, err := q.page()
	if err != nil {
		return joins.Params{}, err
	}
	return joins.Params{
		Registry: q.m.b.registry,
		Base:     q.m.table,
		Where:    filter,
		With:     q.st.With,
		LimitOne: q.st.First,
		Page:     page,
	}, nil
}

func (q Query[T]) page() (joins.Page, error) {
	if q.st.Limit < 0 || q.st.Offset < 0 {
		return joins.Page{}, alerr.New(alerr.ErrInvalidValue, "limit and offset must not be negative").
			WithTable(q.m.table.Name).
			With("limit", q.st.Limit).
			With("offset", q.st.Offset)
	}
	page := joins.Page{Limit: q.st.Limit, Offset: q.st.Offset}
	if q.st.First {
		page.Limit = 1
	}
	for _, o := range q.st.OrderBy {
		if !q.m.table.HasColumn(o.Column) {
			return joins.Page{}, alerr.NewUnknownColumnError(q.m.table.Name, o.Column, q.m.table.ColumnNames()).
				With("clause", "order by")
		}
		page.OrderBy = append(page.OrderBy, sqlgen.Order{
			Expr: sqlgen.Col(q.m.table.Name, o.Column),
			Desc: o.Desc,
		})
	}
	return page, nil
}

// withEmpty reports whether a With value loads no relation.
func withEmpty(with any) bool {
	switch w := with.(type) {
	case nil:
		return true
	case With:
		return len(w) == 0
	case map[string]any:
		return len(w) == 0
	case map[string]bool:
		return len(w) == 0
	}
	return false
}

func formatRows(result any, format func(Row) Row) any {
	switch v := result.(type) {
	case Row:
		if v == nil {
			return v
		}
		return format(v)
	case []Row:
		out := make([]Row, len(v))
		for i, row := range v {
			out[i] = format(row)
		}
		return out
	}
	return result
}
