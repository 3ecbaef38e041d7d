package sqlgen

// ----------------------------------------------------------------------------
// Sources
// ----------------------------------------------------------------------------

// Table is a FROM/JOIN source: a named table, or a derived table when Query is
// set. Alias is required for derived tables.
type Table struct {
	Name  string
	Alias string
	Query *Select
}

// Ref returns the name columns of this source are qualified with.
func (t Table) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// Col returns a column of this source.
func (t Table) Col(name string) Column {
	return Col(t.Ref(), name)
}

// WriteSQL renders "name" [AS "alias"] or (subquery) AS "alias".
func (t Table) WriteSQL(b *Builder) {
	if t.Query != nil {
		b.Raw("(")
		t.Query.WriteSQL(b)
		b.Raw(") AS ").Ident(t.Alias)
		return
	}
	b.Ident(t.Name)
	if t.Alias != "" {
		b.Raw(" AS ").Ident(t.Alias)
	}
}

// ----------------------------------------------------------------------------
// SELECT
// ----------------------------------------------------------------------------

// SelectItem is one entry of a select list.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// Join is a LEFT JOIN of a source on a condition.
type Join struct {
	Table Table
	On    Expr
}

// Order is one ORDER BY term.
type Order struct {
	Expr Expr
	Desc bool
}

// Select is a SELECT statement. An empty Items list selects *.
type Select struct {
	Items   []SelectItem
	From    Table
	Joins   []Join
	Where   Expr
	OrderBy []Order
	Limit   int
	Offset  int
}

// WriteSQL renders the statement.
func (s *Select) WriteSQL(b *Builder) {
	b.Raw("SELECT ")
	if len(s.Items) == 0 {
		b.Raw("*")
	}
	for i, item := range s.Items {
		if i > 0 {
			b.Comma()
		}
		item.Expr.WriteSQL(b)
		if item.Alias != "" {
			b.Raw(" AS ").Ident(item.Alias)
		}
	}
	b.Raw(" FROM ")
	s.From.WriteSQL(b)
	for _, j := range s.Joins {
		b.Raw(" LEFT JOIN ")
		j.Table.WriteSQL(b)
		b.Raw(" ON ")
		j.On.WriteSQL(b)
	}
	writeWhere(b, s.Where)
	if len(s.OrderBy) > 0 {
		b.Raw(" ORDER BY ")
		for i, o := range s.OrderBy {
			if i > 0 {
				b.Comma()
			}
			o.Expr.WriteSQL(b)
			if o.Desc {
				b.Raw(" DESC")
			} else {
				b.Raw(" ASC")
			}
		}
	}
	if page := b.dialect.LimitOffset(s.Limit, s.Offset); page != "" {
		b.Space().Raw(page)
	}
}

// ----------------------------------------------------------------------------
// INSERT
// ----------------------------------------------------------------------------

// Assignment is one "column = value" of a SET list. Value may be an Expr.
type Assignment struct {
	Column string
	Value  any
}

// OnConflict turns an INSERT into an upsert.
type OnConflict struct {
	Target []string
	Set    []Assignment
}

// Insert is a multi-row INSERT. Every row has one value per column.
type Insert struct {
	Table      string
	Columns    []string
	Rows       [][]any
	OnConflict *OnConflict
	Returning  []string
}

// WriteSQL renders the statement.
func (s *Insert) WriteSQL(b *Builder) {
	b.Raw("INSERT INTO ").Ident(s.Table)
	b.Raw(" (").Idents(s.Columns...).Raw(") VALUES ")
	for i, row := range s.Rows {
		if i > 0 {
			b.Comma()
		}
		b.Raw("(")
		for j, v := range row {
			if j > 0 {
				b.Comma()
			}
			b.Operand(v)
		}
		b.Raw(")")
	}
	if s.OnConflict != nil {
		b.Space().Raw(b.dialect.OnConflictUpdate(s.OnConflict.Target)).Space()
		writeAssignments(b, s.OnConflict.Set)
	}
	writeReturning(b, s.Returning)
}

// ----------------------------------------------------------------------------
// UPDATE / DELETE
// ----------------------------------------------------------------------------

// Update is an UPDATE statement. A nil Where updates every row.
type Update struct {
	Table     string
	Set       []Assignment
	Where     Expr
	Returning []string
}

// WriteSQL renders the statement.
func (s *Update) WriteSQL(b *Builder) {
	b.Raw("UPDATE ").Ident(s.Table).Raw(" SET ")
	writeAssignments(b, s.Set)
	writeWhere(b, s.Where)
	writeReturning(b, s.Returning)
}

// Delete is a DELETE statement. A nil Where deletes every row.
type Delete struct {
	Table     string
	Where     Expr
	Returning []string
}

// WriteSQL renders the statement.
func (s *Delete) WriteSQL(b *Builder) {
	b.Raw("DELETE FROM ").Ident(s.Table)
	writeWhere(b, s.Where)
	writeReturning(b, s.Returning)
}

func writeWhere(b *Builder, where Expr) {
	if where == nil {
		return
	}
	b.Raw(" WHERE ")
	where.WriteSQL(b)
}

func writeAssignments(b *Builder, set []Assignment) {
	for i, a := range set {
		if i > 0 {
			b.Comma()
		}
		b.Ident(a.Column).Raw(" = ").Operand(a.Value)
	}
}

func writeReturning(b *Builder, cols []string) {
	if len(cols) == 0 {
		return
	}
	b.Raw(" RETURNING ").Idents(cols...)
}
