// Package ast defines the table and relation metadata the query compiler works from.
// Definitions are built once (programmatically or from a schema document) and are
// treated as immutable afterwards.
package ast

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/hlop3z/alabq/internal/alerr"
)

// Validation messages shared across TableDef, ColumnDef and RelationDef.
const (
	msgTableNameRequired    = "table name is required"
	msgColumnNameRequired   = "column name is required"
	msgRelationNameRequired = "relation name is required"
	msgTableNeedsColumn     = "table must have at least one column"
	msgRelationNeedsTarget  = "relation must name a target table"
	msgRelationNeedsColumns = "relation must pair at least one source and target column"
	msgRelationColumnCount  = "relation source and target column counts must match"
)

// validIdentifierPattern matches identifiers that are safe to quote and to use as map keys.
var validIdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier checks that a table, column or relation name is a plain identifier.
func ValidateIdentifier(name string) error {
	if !validIdentifierPattern.MatchString(name) {
		return alerr.New(alerr.ErrInvalidIdentifier,
			fmt.Sprintf("invalid identifier %q; must match [A-Za-z_][A-Za-z0-9_]*", name))
	}
	return nil
}

// Kind is the data kind of a column. It drives value normalisation after a scan.
type Kind string

const (
	KindInteger   Kind = "integer"
	KindFloat     Kind = "float"
	KindDecimal   Kind = "decimal"
	KindText      Kind = "text"
	KindBoolean   Kind = "boolean"
	KindTimestamp Kind = "timestamp"
	KindUUID      Kind = "uuid"
	KindJSON      Kind = "json"
	KindBlob      Kind = "blob"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInteger, KindFloat, KindDecimal, KindText, KindBoolean,
		KindTimestamp, KindUUID, KindJSON, KindBlob:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------
// ColumnDef
// -----------------------------------------------------------------------------

// ColumnDef describes one column of a table.
type ColumnDef struct {
	Name       string `yaml:"name"`
	Kind       Kind   `yaml:"kind"`
	PrimaryKey bool   `yaml:"primary_key"`
	Nullable   bool   `yaml:"nullable"`
}

// Validate checks the column definition.
func (c *ColumnDef) Validate() error {
	if c.Name == "" {
		return alerr.New(alerr.ErrSchemaInvalid, msgColumnNameRequired)
	}
	if err := ValidateIdentifier(c.Name); err != nil {
		return err
	}
	if c.Kind != "" && !c.Kind.Valid() {
		return alerr.New(alerr.ErrSchemaInvalid, "unknown column kind").
			WithColumn(c.Name).
			With("kind", string(c.Kind))
	}
	return nil
}

// -----------------------------------------------------------------------------
// RelationDef
// -----------------------------------------------------------------------------

// RelationType is the cardinality of a relation seen from its source table.
type RelationType string

const (
	RelationOne  RelationType = "one"
	RelationMany RelationType = "many"
)

// RelationDef describes a relation from a source table to a target table.
// SourceColumns[i] is joined to TargetColumns[i].
type RelationDef struct {
	Name          string       `yaml:"name"`
	Type          RelationType `yaml:"type"`
	Target        string       `yaml:"target"`
	SourceColumns []string     `yaml:"source_columns"`
	TargetColumns []string     `yaml:"target_columns"`
}

// IsMany reports whether the relation yields a list.
func (r *RelationDef) IsMany() bool {
	return r.Type == RelationMany
}

// Validate checks the relation definition on its own (target existence is
// checked by the registry, which sees every table).
func (r *RelationDef) Validate() error {
	if r.Name == "" {
		return alerr.New(alerr.ErrSchemaInvalid, msgRelationNameRequired)
	}
	if err := ValidateIdentifier(r.Name); err != nil {
		return err
	}
	if r.Type != RelationOne && r.Type != RelationMany {
		return alerr.New(alerr.ErrSchemaInvalid, "relation type must be 'one' or 'many'").
			WithRelation(r.Name).
			With("type", string(r.Type))
	}
	if r.Target == "" {
		return alerr.New(alerr.ErrSchemaInvalid, msgRelationNeedsTarget).WithRelation(r.Name)
	}
	if len(r.SourceColumns) == 0 || len(r.TargetColumns) == 0 {
		return alerr.New(alerr.ErrSchemaInvalid, msgRelationNeedsColumns).WithRelation(r.Name)
	}
	if len(r.SourceColumns) != len(r.TargetColumns) {
		return alerr.New(alerr.ErrSchemaInvalid, msgRelationColumnCount).
			WithRelation(r.Name).
			With("source_columns", r.SourceColumns).
			With("target_columns", r.TargetColumns)
	}
	return nil
}

// -----------------------------------------------------------------------------
// TableDef
// -----------------------------------------------------------------------------

// TableDef represents a table with its columns (in declaration order) and the
// relations that start from it.
type TableDef struct {
	Name      string         `yaml:"name"`
	Columns   []*ColumnDef   `yaml:"columns"`
	Relations []*RelationDef `yaml:"relations"`
}

// GetColumn returns the column with the given name, or nil.
func (t *TableDef) GetColumn(name string) *ColumnDef {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// HasColumn reports whether the table declares the column.
func (t *TableDef) HasColumn(name string) bool {
	return t.GetColumn(name) != nil
}

// ColumnNames returns the column names in declaration order.
func (t *TableDef) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// GetRelation returns the relation with the given name, or nil.
func (t *TableDef) GetRelation(name string) *RelationDef {
	for _, r := range t.Relations {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// RelationNames returns the relation names in declaration order.
func (t *TableDef) RelationNames() []string {
	names := make([]string, len(t.Relations))
	for i, r := range t.Relations {
		names[i] = r.Name
	}
	return names
}

// DeclaredPrimaryKey returns the columns flagged as primary key.
func (t *TableDef) DeclaredPrimaryKey() []string {
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// PrimaryKey returns the columns used to identify a row: the declared primary
// key, else a column literally named "id", else the first column.
// The fallbacks keep grouping working on tables declared without a key, at the
// price of wrong grouping when the fallback column is not unique.
func (t *TableDef) PrimaryKey() []string {
	if pk := t.DeclaredPrimaryKey(); len(pk) > 0 {
		return pk
	}
	if t.HasColumn("id") {
		return []string{"id"}
	}
	if len(t.Columns) > 0 {
		return []string{t.Columns[0].Name}
	}
	return nil
}

func (t *TableDef) checkDuplicates() error {
	seen := make(map[string]bool, len(t.Columns)+len(t.Relations))
	for _, c := range t.Columns {
		if seen[c.Name] {
			return alerr.New(alerr.ErrSchemaDuplicate, "duplicate column").
				WithTable(t.Name).
				WithColumn(c.Name)
		}
		seen[c.Name] = true
	}
	for _, r := range t.Relations {
		if seen[r.Name] {
			return alerr.New(alerr.ErrSchemaDuplicate, "relation name collides with a column or relation").
				WithTable(t.Name).
				WithRelation(r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// Validate checks the table, its columns, and that every relation's source
// columns exist on this table.
func (t *TableDef) Validate() error {
	if t.Name == "" {
		return alerr.New(alerr.ErrSchemaInvalid, msgTableNameRequired)
	}
	if err := ValidateIdentifier(t.Name); err != nil {
		return err
	}
	if len(t.Columns) == 0 {
		return alerr.New(alerr.ErrSchemaInvalid, msgTableNeedsColumn).WithTable(t.Name)
	}
	for _, c := range t.Columns {
		if err := c.Validate(); err != nil {
			if e, ok := err.(*alerr.Error); ok {
				e.WithTable(t.Name)
			}
			return err
		}
	}
	for _, r := range t.Relations {
		if err := r.Validate(); err != nil {
			if e, ok := err.(*alerr.Error); ok {
				e.WithTable(t.Name)
			}
			return err
		}
		for _, col := range r.SourceColumns {
			if !t.HasColumn(col) {
				return alerr.NewUnknownColumnError(t.Name, col, t.ColumnNames()).
					WithRelation(r.Name)
			}
		}
	}
	return t.checkDuplicates()
}

// Clone returns a deep copy so callers can hand out definitions without
// sharing mutable slices.
func (t *TableDef) Clone() *TableDef {
	out := &TableDef{Name: t.Name}
	for _, c := range t.Columns {
		cc := *c
		out.Columns = append(out.Columns, &cc)
	}
	for _, r := range t.Relations {
		rc := *r
		rc.SourceColumns = slices.Clone(r.SourceColumns)
		rc.TargetColumns = slices.Clone(r.TargetColumns)
		out.Relations = append(out.Relations, &rc)
	}
	return out
}
