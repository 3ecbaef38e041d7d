// Package alabq provides typed model objects over database tables.
//
// A Builder is configured once with a connection, a schema registry and a
// dialect. Each Model it hands out compiles where values, relation loads,
// projections and mutations into parameterized SQL, runs them, and assembles
// nested rows. Query and Mutation values are immutable descriptions; nothing
// runs until Exec is called, and every Exec runs again.
//
// Example:
//
//	reg, _ := alabq.LoadSchema("schema.yaml")
//	b, _ := alabq.NewBuilder(alabq.Config{DB: db, Registry: reg, Dialect: "postgres"})
//	users := b.MustModel("users", alabq.Options{})
//
//	rows, err := users.
//	    Where(alabq.Map{"name": alabq.Filter{Like: "A%"}}).
//	    FindMany().
//	    With(alabq.With{"posts": true}).
//	    Exec(ctx)
package alabq

import (
	"context"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
	"github.com/hlop3z/alabq/internal/dialect"
	"github.com/hlop3z/alabq/internal/introspect"
	"github.com/hlop3z/alabq/internal/joins"
	"github.com/hlop3z/alabq/internal/projection"
	"github.com/hlop3z/alabq/internal/registry"
	"github.com/hlop3z/alabq/internal/sqlgen"
	"github.com/hlop3z/alabq/internal/validate"
	"github.com/hlop3z/alabq/internal/where"
)

// -----------------------------------------------------------------------------
// Values
// -----------------------------------------------------------------------------

type (
	// Row is one result object: column or relation name to value.
	Row = projection.Row

	// Spec is a select or exclude projection: field name to true or a nested Spec.
	Spec = projection.Spec

	// With names the relations to load: relation name to true, false,
	// a nested With, or a Model whose filter constrains the join.
	With = joins.With

	// Map is a table-shaped where value: column name to filter value.
	Map = where.Map

	// Filter is an operator object for one column.
	Filter = where.Filter

	// All is a where value whose items must all hold.
	All = where.All

	// Equals forces literal equality, even for map-shaped values.
	Equals = where.Equals

	// RawOp applies a named comparison operator.
	RawOp = where.RawOp

	// Expr is a compiled SQL fragment. Exprs are accepted as where values,
	// as assignment values in Update and as upsert set values.
	Expr = sqlgen.Expr

	// Column references a table column.
	Column = sqlgen.Column
)

// Bool returns a pointer to b, for Filter.IsNull.
func Bool(b bool) *bool { return where.Bool(b) }

// Raw is a literal SQL fragment. Each ? outside quotes binds the next arg;
// Expr args render in place.
func Raw(sql string, args ...any) Expr { return sqlgen.Raw(sql, args...) }

// Col references column name of table.
func Col(table, name string) Column { return sqlgen.Col(table, name) }

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

type (
	// Registry holds the table and relation metadata models are built from.
	Registry = registry.Registry

	TableDef    = ast.TableDef
	ColumnDef   = ast.ColumnDef
	RelationDef = ast.RelationDef
	Kind        = ast.Kind
)

// Column kinds.
const (
	KindInteger   = ast.KindInteger
	KindFloat     = ast.KindFloat
	KindDecimal   = ast.KindDecimal
	KindText      = ast.KindText
	KindBoolean   = ast.KindBoolean
	KindTimestamp = ast.KindTimestamp
	KindUUID      = ast.KindUUID
	KindJSON      = ast.KindJSON
	KindBlob      = ast.KindBlob
)

// Relation cardinalities.
const (
	RelationOne  = ast.RelationOne
	RelationMany = ast.RelationMany
)

// NewRegistry registers tables and validates the relations between them.
func NewRegistry(tables ...*TableDef) (*Registry, error) {
	return registry.FromTables(tables...)
}

// ParseSchema builds a registry from a YAML schema document.
func ParseSchema(data []byte) (*Registry, error) {
	return registry.Parse(data)
}

// LoadSchema reads a YAML schema document from path.
func LoadSchema(path string) (*Registry, error) {
	return registry.LoadFile(path)
}

// IntrospectSchema builds a registry from the tables of a live PostgreSQL or
// SQLite database. Foreign keys become relation pairs: posts.user_id
// referencing users.id yields posts.user (one) and users.posts (many).
// When only is not empty, just those tables are read.
func IntrospectSchema(ctx context.Context, db Conn, dialectName string, only ...string) (*Registry, error) {
	d := dialect.Get(dialectName)
	if d == nil {
		return nil, alerr.New(alerr.EUnsupportedDialect, "unsupported dialect").With("dialect", dialectName)
	}
	return introspectRegistry(ctx, db, d, only)
}

func introspectRegistry(ctx context.Context, db Conn, d dialect.Dialect, only []string) (*Registry, error) {
	defs, err := introspect.Tables(ctx, introspect.New(db, d), only...)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, alerr.New(alerr.ErrSchemaInvalid, "database has no tables").With("dialect", d.Name())
	}
	return registry.FromTables(defs...)
}

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

type (
	// Validator checks insert, update and upsert payloads before they run.
	Validator = validate.Validator

	// ValidationMode tells a Validator whether the payload is complete.
	ValidationMode = validate.Mode

	// ValidatorFunc adapts a function to Validator.
	ValidatorFunc = validate.Func
)

// Validation modes.
const (
	ValidateFull    = validate.Full
	ValidatePartial = validate.Partial
)

// NewCUEValidator compiles CUE rules keyed by table name.
func NewCUEValidator(src string) (Validator, error) {
	v, err := validate.NewCUE(src)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// LoadCUEValidator reads CUE rules from path.
func LoadCUEValidator(path string) (Validator, error) {
	v, err := validate.LoadCUEFile(path)
	if err != nil {
		return nil, err
	}
	return v, nil
}
