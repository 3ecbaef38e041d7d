package introspect

import (
	"context"
	"testing"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
	"github.com/hlop3z/alabq/internal/dialect"
	"github.com/hlop3z/alabq/internal/registry"
	"github.com/hlop3z/alabq/internal/testutil"
)

var blogDDL = []string{`
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	active BOOLEAN,
	created_at DATETIME
)`, `
CREATE TABLE posts (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id),
	editor_id INTEGER REFERENCES users,
	title TEXT NOT NULL,
	score REAL,
	body BLOB
)`, `
CREATE TABLE tags (
	post_id INTEGER NOT NULL,
	tag TEXT NOT NULL,
	PRIMARY KEY (post_id, tag),
	FOREIGN KEY (post_id) REFERENCES posts(id)
)`,
}

func setupBlog(t *testing.T) Introspector {
	t.Helper()
	db := testutil.SetupSQLite(t)
	testutil.ExecSQL(t, db, blogDDL...)
	return New(db, dialect.SQLite())
}

func TestSQLiteListTables(t *testing.T) {
	in := setupBlog(t)

	names, err := in.ListTables(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, names, []string{"posts", "tags", "users"})
}

func TestSQLiteIntrospectTable(t *testing.T) {
	in := setupBlog(t)
	ctx := context.Background()

	users, err := in.IntrospectTable(ctx, "users")
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, users.Def.Columns, []*ast.ColumnDef{
		{Name: "id", Kind: ast.KindInteger, PrimaryKey: true},
		{Name: "name", Kind: ast.KindText},
		{Name: "active", Kind: ast.KindBoolean, Nullable: true},
		{Name: "created_at", Kind: ast.KindTimestamp, Nullable: true},
	})
	testutil.AssertLen(t, users.ForeignKeys, 0)

	posts, err := in.IntrospectTable(ctx, "posts")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, posts.Def.GetColumn("score").Kind, ast.KindFloat)
	testutil.AssertEqual(t, posts.Def.GetColumn("body").Kind, ast.KindBlob)
	testutil.AssertDeepEqual(t, posts.ForeignKeys, []*ForeignKey{
		{Name: "fk_posts_1", Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}},
		{Name: "fk_posts_0", Columns: []string{"editor_id"}, RefTable: "users"},
	})

	tags, err := in.IntrospectTable(ctx, "tags")
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, tags.Def.PrimaryKey(), []string{"post_id", "tag"})

	missing, err := in.IntrospectTable(ctx, "nope")
	testutil.AssertNoError(t, err)
	if missing != nil {
		t.Errorf("IntrospectTable(nope) = %+v, want nil", missing)
	}
}

func TestTablesDerivesRelations(t *testing.T) {
	in := setupBlog(t)

	defs, err := Tables(context.Background(), in)
	testutil.AssertNoError(t, err)
	reg, err := registry.FromTables(defs...)
	testutil.Must(t, err)

	tests := []struct {
		table, relation string
		want            ast.RelationDef
	}{
		{"posts", "user", ast.RelationDef{Name: "user", Type: ast.RelationOne, Target: "users",
			SourceColumns: []string{"user_id"}, TargetColumns: []string{"id"}}},
		{"posts", "editor", ast.RelationDef{Name: "editor", Type: ast.RelationOne, Target: "users",
			SourceColumns: []string{"editor_id"}, TargetColumns: []string{"id"}}},
		{"users", "posts", ast.RelationDef{Name: "posts", Type: ast.RelationMany, Target: "posts",
			SourceColumns: []string{"id"}, TargetColumns: []string{"user_id"}}},
		{"users", "posts_by_editor", ast.RelationDef{Name: "posts_by_editor", Type: ast.RelationMany, Target: "posts",
			SourceColumns: []string{"id"}, TargetColumns: []string{"editor_id"}}},
		{"tags", "post", ast.RelationDef{Name: "post", Type: ast.RelationOne, Target: "posts",
			SourceColumns: []string{"post_id"}, TargetColumns: []string{"id"}}},
		{"posts", "tags", ast.RelationDef{Name: "tags", Type: ast.RelationMany, Target: "tags",
			SourceColumns: []string{"id"}, TargetColumns: []string{"post_id"}}},
	}
	for _, tt := range tests {
		t.Run(tt.table+"."+tt.relation, func(t *testing.T) {
			rel, err := reg.Relation(tt.table, tt.relation)
			testutil.Must(t, err)
			testutil.AssertDeepEqual(t, *rel, tt.want)
		})
	}
}

func TestTablesOnly(t *testing.T) {
	in := setupBlog(t)
	ctx := context.Background()

	defs, err := Tables(ctx, in, "posts")
	testutil.AssertNoError(t, err)
	testutil.AssertLen(t, defs, 1)
	testutil.AssertLen(t, defs[0].Relations, 0)

	_, err = Tables(ctx, in, "posts", "nope")
	testutil.AssertError(t, err, alerr.ErrSchemaNotFound)
}

func TestUnsupportedDialect(t *testing.T) {
	db := testutil.SetupSQLite(t)
	in := New(db, dialect.MySQL())
	if in != nil {
		t.Fatalf("New(mysql) = %T, want nil", in)
	}
	_, err := Tables(context.Background(), in)
	testutil.AssertError(t, err, alerr.EUnsupportedDialect)
}

func TestRelationNames(t *testing.T) {
	employees := &Table{
		Def: &ast.TableDef{Name: "employees", Columns: []*ast.ColumnDef{
			{Name: "id", Kind: ast.KindInteger, PrimaryKey: true},
			{Name: "manager_id", Kind: ast.KindInteger, Nullable: true},
		}},
		ForeignKeys: []*ForeignKey{{Columns: []string{"manager_id"}, RefTable: "employees"}},
	}
	orders := &Table{
		Def: &ast.TableDef{Name: "orders", Columns: []*ast.ColumnDef{
			{Name: "id", Kind: ast.KindInteger, PrimaryKey: true},
			{Name: "customer", Kind: ast.KindText},
			{Name: "customer_id", Kind: ast.KindInteger},
			{Name: "code", Kind: ast.KindText},
		}},
		ForeignKeys: []*ForeignKey{
			{Columns: []string{"customer_id"}, RefTable: "customers"},
			// Column count does not match the target key.
			{Columns: []string{"id", "code"}, RefTable: "customers"},
			// Target outside the introspected set.
			{Columns: []string{"code"}, RefTable: "archive"},
		},
	}
	customers := &Table{
		Def: &ast.TableDef{Name: "customers", Columns: []*ast.ColumnDef{
			{Name: "id", Kind: ast.KindInteger, PrimaryKey: true},
			{Name: "orders", Kind: ast.KindText},
		}},
	}

	linkForeignKeys([]*Table{employees, orders, customers})

	testutil.AssertDeepEqual(t, employees.Def.RelationNames(), []string{"manager", "employees"})
	testutil.AssertDeepEqual(t, orders.Def.RelationNames(), []string{"customers"})
	testutil.AssertDeepEqual(t, customers.Def.RelationNames(), []string{"orders_by_customer"})

	def := &ast.TableDef{Name: "t", Columns: []*ast.ColumnDef{{Name: "a"}, {Name: "b"}, {Name: "a_2"}}}
	testutil.AssertEqual(t, relationName(def, "a", "b"), "a_3")
}

func TestSQLiteKind(t *testing.T) {
	tests := map[string]ast.Kind{
		"INTEGER":       ast.KindInteger,
		"bigint":        ast.KindInteger,
		"VARCHAR(255)":  ast.KindText,
		"CLOB":          ast.KindText,
		"TEXT":          ast.KindText,
		"BLOB":          ast.KindBlob,
		"REAL":          ast.KindFloat,
		"DOUBLE":        ast.KindFloat,
		"FLOAT":         ast.KindFloat,
		"NUMERIC(10,2)": ast.KindDecimal,
		"DECIMAL":       ast.KindDecimal,
		"BOOLEAN":       ast.KindBoolean,
		"DATETIME":      ast.KindTimestamp,
		"DATE":          ast.KindTimestamp,
		"UUID":          ast.KindUUID,
		"JSON":          ast.KindJSON,
		"":              ast.KindText,
	}
	for declared, want := range tests {
		testutil.AssertEqual(t, SQLiteKind(declared), want)
	}
}

func TestPostgresKind(t *testing.T) {
	tests := map[string]ast.Kind{
		"integer":                     ast.KindInteger,
		"bigint":                      ast.KindInteger,
		"smallint":                    ast.KindInteger,
		"double precision":            ast.KindFloat,
		"real":                        ast.KindFloat,
		"numeric":                     ast.KindDecimal,
		"boolean":                     ast.KindBoolean,
		"timestamp with time zone":    ast.KindTimestamp,
		"timestamp without time zone": ast.KindTimestamp,
		"date":                        ast.KindTimestamp,
		"uuid":                        ast.KindUUID,
		"jsonb":                       ast.KindJSON,
		"bytea":                       ast.KindBlob,
		"character varying":           ast.KindText,
		"text":                        ast.KindText,
		"ARRAY":                       ast.KindText,
		"USER-DEFINED":                ast.KindText,
	}
	for dataType, want := range tests {
		testutil.AssertEqual(t, PostgresKind(dataType), want)
	}
}
