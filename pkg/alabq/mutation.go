package alabq

import (
	"context"
	"maps"
	"slices"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
	"github.com/hlop3z/alabq/internal/dialect"
	"github.com/hlop3z/alabq/internal/engine"
	"github.com/hlop3z/alabq/internal/projection"
	"github.com/hlop3z/alabq/internal/sqlgen"
	"github.com/hlop3z/alabq/internal/validate"
)

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
	opUpsert
)

func (k opKind) String() string {
	switch k {
	case opInsert:
		return "insert rows"
	case opUpdate:
		return "update rows"
	case opDelete:
		return "delete rows"
	case opUpsert:
		return "upsert rows"
	}
	return "mutate rows"
}

// Upsert describes an insert that updates on conflict.
type Upsert struct {
	// Insert is the Row or []Row to insert.
	Insert any

	// Update is the SET applied to conflicting rows: a Row, or a
	// func(ConflictRefs) Row. When nil, every inserted column outside the
	// target takes its proposed value.
	Update any

	// Target names the conflict columns: a string, []string, Column or
	// []Column. When nil, the primary key.
	Target any
}

// ConflictRefs references values inside an upsert's update.
type ConflictRefs struct {
	table string
}

// Excluded is the value proposed for insertion into field.
func (r ConflictRefs) Excluded(field string) Expr {
	return sqlgen.Excluded(field)
}

// Inserted is the value already stored in field.
func (r ConflictRefs) Inserted(field string) Expr {
	return sqlgen.Col(r.table, field)
}

// Result is what a mutation reports.
type Result struct {
	// RowsAffected is the number of rows the database reports as changed,
	// or the number of returned rows when rows are returned.
	RowsAffected int64

	// Rows holds the returned rows when Return was called. On dialects that
	// cannot return rows (MySQL) each row holds only the primary key.
	Rows []Row
}

// Mutation is a deferred insert, update, delete or upsert.
// Every method returns a new Mutation; Exec runs it, again on every call.
type Mutation struct {
	m         Model
	kind      opKind
	rows      []Row
	set       Row
	upsert    *Upsert
	returning bool
	ret       Spec
}

// Return makes Exec hand back the affected rows, projected by spec when given.
func (mu Mutation) Return(spec ...Spec) Mutation {
	mu.returning = true
	mu.ret = nil
	for _, s := range spec {
		if mu.ret == nil {
			mu.ret = make(Spec, len(s))
		}
		maps.Copy(mu.ret, s)
	}
	return mu
}

// mutationPlan is a compiled mutation.
type mutationPlan struct {
	stmt      engine.Statement
	returning []string // RETURNING columns
	inserted  []Row    // rows as inserted, for id reporting
}

// ToSQL renders the statement without running it.
func (mu Mutation) ToSQL() (string, []any, error) {
	if mu.m.b == nil || mu.m.table == nil {
		return "", nil, alerr.New(alerr.ErrConfig, "model was not created by a Builder")
	}
	p, err := mu.compile()
	if err != nil {
		return "", nil, err
	}
	query, args := p.stmt.Render(mu.m.b.dialect)
	return query, args, nil
}

// Exec runs the mutation.
func (mu Mutation) Exec(ctx context.Context) (*Result, error) {
	r, err := mu.m.runner()
	if err != nil {
		return nil, err
	}
	p, err := mu.compile()
	if err != nil {
		return nil, err
	}

	if len(p.returning) > 0 {
		res, err := r.Query(ctx, p.stmt, mu.kinds(p.returning))
		if err != nil {
			return nil, err
		}
		rows := make([]Row, len(res.Rows))
		for i, values := range res.Rows {
			row := make(Row, len(res.Columns))
			for j, c := range res.Columns {
				row[c] = values[j]
			}
			rows[i] = row
		}
		return &Result{RowsAffected: int64(len(rows)), Rows: rows}, nil
	}

	if !mu.returning || mu.m.b.dialect.Returning() != dialect.ReturningIDs {
		res, err := r.Exec(ctx, p.stmt)
		if err != nil {
			return nil, err
		}
		n, _ := res.RowsAffected()
		return &Result{RowsAffected: n}, nil
	}
	return mu.execReturningIDs(ctx, r, p)
}

// execReturningIDs reports primary keys on dialects without RETURNING.
// Inserts use the supplied key values or the generated ids; updates and
// deletes read the matching keys before the statement runs.
func (mu Mutation) execReturningIDs(ctx context.Context, r *engine.Runner, p *mutationPlan) (*Result, error) {
	pk := mu.m.table.PrimaryKey()

	var before []Row
	if mu.kind == opUpdate || mu.kind == opDelete {
		filter, err := mu.m.compileFilter()
		if err != nil {
			return nil, err
		}
		base := sqlgen.Table{Name: mu.m.table.Name}
		sel := &sqlgen.Select{From: base, Where: filter}
		for _, c := range pk {
			sel.Items = append(sel.Items, sqlgen.SelectItem{Expr: base.Col(c)})
		}
		res, err := r.Query(ctx, engine.Statement{Op: "select affected keys", Table: mu.m.table.Name, Expr: sel}, mu.kinds(pk))
		if err != nil {
			return nil, err
		}
		for _, values := range res.Rows {
			row := make(Row, len(pk))
			for j, c := range pk {
				row[c] = values[j]
			}
			before = append(before, row)
		}
	}

	res, err := r.Exec(ctx, p.stmt)
	if err != nil {
		return nil, err
	}
	n, _ := res.RowsAffected()
	if mu.kind == opUpdate || mu.kind == opDelete {
		if before == nil {
			before = []Row{}
		}
		return &Result{RowsAffected: n, Rows: before}, nil
	}

	next, idErr := res.LastInsertId()
	rows := make([]Row, 0, len(p.inserted))
	for _, in := range p.inserted {
		row := make(Row, len(pk))
		complete := true
		for _, c := range pk {
			v, ok := in[c]
			if !ok || v == nil {
				complete = false
				break
			}
			row[c] = v
		}
		if !complete {
			if len(pk) != 1 || idErr != nil {
				continue
			}
			row = Row{pk[0]: next}
			next++
		}
		rows = append(rows, row)
	}
	return &Result{RowsAffected: n, Rows: rows}, nil
}

func (mu Mutation) kinds(columns []string) []ast.Kind {
	kinds := make([]ast.Kind, len(columns))
	for i, c := range columns {
		if col := mu.m.table.GetColumn(c); col != nil {
			kinds[i] = col.Kind
		}
	}
	return kinds
}

// -----------------------------------------------------------------------------
// Compilation
// -----------------------------------------------------------------------------

func (mu Mutation) compile() (*mutationPlan, error) {
	switch mu.kind {
	case opInsert:
		return mu.compileInsert(mu.rows, nil)
	case opUpdate:
		return mu.compileUpdate()
	case opDelete:
		return mu.compileDelete()
	case opUpsert:
		return mu.compileUpsert()
	}
	return nil, alerr.New(alerr.EInternalError, "unknown mutation kind")
}

func (mu Mutation) compileInsert(rows []Row, conflict *sqlgen.OnConflict) (*mutationPlan, error) {
	table := mu.m.table
	if len(rows) == 0 {
		return nil, alerr.New(alerr.ErrInvalidValue, "insert needs at least one row").WithTable(table.Name)
	}
	present := make(map[string]bool)
	for _, row := range rows {
		if err := mu.checkColumns(row); err != nil {
			return nil, err
		}
		if err := mu.checkPayload(row, validate.Full); err != nil {
			return nil, err
		}
		for k := range row {
			present[k] = true
		}
	}

	stmt := &sqlgen.Insert{Table: table.Name, OnConflict: conflict}
	for _, c := range table.Columns {
		if present[c.Name] {
			stmt.Columns = append(stmt.Columns, c.Name)
		}
	}
	for _, row := range rows {
		values := make([]any, len(stmt.Columns))
		for i, c := range stmt.Columns {
			v, ok := row[c]
			if !ok {
				values[i] = sqlgen.Default()
				continue
			}
			values[i] = v
		}
		stmt.Rows = append(stmt.Rows, values)
	}

	p := &mutationPlan{inserted: rows}
	stmt.Returning = mu.returningColumns()
	p.returning = stmt.Returning
	p.stmt = engine.Statement{Op: mu.kind.String(), Table: table.Name, Expr: stmt}
	return p, nil
}

func (mu Mutation) compileUpdate() (*mutationPlan, error) {
	table := mu.m.table
	set, err := mu.assignments(mu.set)
	if err != nil {
		return nil, err
	}
	if err := mu.checkPayload(mu.set, validate.Partial); err != nil {
		return nil, err
	}
	filter, err := mu.m.compileFilter()
	if err != nil {
		return nil, err
	}
	stmt := &sqlgen.Update{Table: table.Name, Set: set, Where: filter, Returning: mu.returningColumns()}
	return &mutationPlan{
		stmt:      engine.Statement{Op: mu.kind.String(), Table: table.Name, Expr: stmt},
		returning: stmt.Returning,
	}, nil
}

func (mu Mutation) compileDelete() (*mutationPlan, error) {
	table := mu.m.table
	filter, err := mu.m.compileFilter()
	if err != nil {
		return nil, err
	}
	stmt := &sqlgen.Delete{Table: table.Name, Where: filter, Returning: mu.returningColumns()}
	return &mutationPlan{
		stmt:      engine.Statement{Op: mu.kind.String(), Table: table.Name, Expr: stmt},
		returning: stmt.Returning,
	}, nil
}

func (mu Mutation) compileUpsert() (*mutationPlan, error) {
	table := mu.m.table
	u := mu.upsert

	var rows []Row
	switch v := u.Insert.(type) {
	case Row:
		rows = []Row{v}
	case []Row:
		rows = v
	default:
		return nil, alerr.Newf(alerr.ErrInvalidValue, "upsert insert must be a Row or []Row, got %T", u.Insert).
			WithTable(table.Name)
	}

	target, err := mu.conflictTarget(u.Target)
	if err != nil {
		return nil, err
	}

	var set Row
	switch v := u.Update.(type) {
	case nil:
		set = make(Row)
		for _, row := range rows {
			for k := range row {
				if !slices.Contains(target, k) {
					set[k] = sqlgen.Excluded(k)
				}
			}
		}
	case Row:
		set = v
	case func(ConflictRefs) Row:
		set = v(ConflictRefs{table: table.Name})
	default:
		return nil, alerr.Newf(alerr.ErrInvalidValue, "upsert update must be a Row or func(ConflictRefs) Row, got %T", u.Update).
			WithTable(table.Name)
	}
	assignments, err := mu.assignments(set)
	if err != nil {
		return nil, err
	}
	if err := mu.checkPayload(set, validate.Partial); err != nil {
		return nil, err
	}
	return mu.compileInsert(rows, &sqlgen.OnConflict{Target: target, Set: assignments})
}

// conflictTarget resolves an upsert target to column names.
func (mu Mutation) conflictTarget(target any) ([]string, error) {
	var names []string
	switch v := target.(type) {
	case nil:
		return mu.m.table.PrimaryKey(), nil
	case string:
		names = []string{v}
	case []string:
		names = v
	case Column:
		names = []string{v.Name}
	case []Column:
		for _, c := range v {
			names = append(names, c.Name)
		}
	default:
		return nil, alerr.Newf(alerr.ErrInvalidValue, "upsert target must be a column name or Column, got %T", target).
			WithTable(mu.m.table.Name)
	}
	for _, n := range names {
		if !mu.m.table.HasColumn(n) {
			return nil, alerr.NewUnknownColumnError(mu.m.table.Name, n, mu.m.table.ColumnNames()).
				With("clause", "conflict target")
		}
	}
	return names, nil
}

// assignments turns a payload into SET items in column order.
func (mu Mutation) assignments(set Row) ([]sqlgen.Assignment, error) {
	if len(set) == 0 {
		return nil, alerr.New(alerr.ErrInvalidValue, "nothing to update").WithTable(mu.m.table.Name)
	}
	if err := mu.checkColumns(set); err != nil {
		return nil, err
	}
	out := make([]sqlgen.Assignment, 0, len(set))
	for _, c := range mu.m.table.Columns {
		if v, ok := set[c.Name]; ok {
			out = append(out, sqlgen.Assignment{Column: c.Name, Value: v})
		}
	}
	return out, nil
}

func (mu Mutation) checkColumns(row Row) error {
	for _, k := range slices.Sorted(maps.Keys(row)) {
		if !mu.m.table.HasColumn(k) {
			return alerr.NewUnknownColumnError(mu.m.table.Name, k, mu.m.table.ColumnNames()).
				With("operation", mu.kind.String())
		}
	}
	return nil
}

// returningColumns is the RETURNING list, empty when the dialect cannot
// return rows or Return was not called.
func (mu Mutation) returningColumns() []string {
	if !mu.returning || mu.m.b.dialect.Returning() != dialect.ReturningRows {
		return nil
	}
	return projection.BuildSelectProjection(mu.m.table.ColumnNames(), mu.ret, nil)
}

// checkPayload runs the configured validator over the literal values of row.
func (mu Mutation) checkPayload(row Row, mode validate.Mode) error {
	v := mu.m.b.validator
	if v == nil {
		return nil
	}
	plain := make(map[string]any, len(row))
	for k, val := range row {
		if _, ok := val.(sqlgen.Expr); ok {
			continue
		}
		plain[k] = val
	}
	err := v.Validate(mu.m.table.Name, plain, mode)
	if err == nil || alerr.Is(err, alerr.ErrValidation) {
		return err
	}
	return alerr.Wrap(alerr.ErrValidation, err, "payload rejected").WithTable(mu.m.table.Name)
}
