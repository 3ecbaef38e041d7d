package alabq

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/hlop3z/alabq/internal/dialect"
	"github.com/hlop3z/alabq/internal/testutil"
)

const blogSchema = `
tables:
  - name: users
    columns:
      - {name: id, kind: integer, primary_key: true}
      - {name: name, kind: text}
      - {name: age, kind: integer, nullable: true}
    relations:
      - {name: posts, type: many, target: posts, source_columns: [id], target_columns: [user_id]}
  - name: posts
    columns:
      - {name: id, kind: integer, primary_key: true}
      - {name: user_id, kind: integer}
      - {name: title, kind: text}
      - {name: published, kind: boolean, nullable: true}
    relations:
      - {name: comments, type: many, target: comments, source_columns: [id], target_columns: [post_id]}
      - {name: author, type: one, target: users, source_columns: [user_id], target_columns: [id]}
  - name: comments
    columns:
      - {name: id, kind: integer, primary_key: true}
      - {name: post_id, kind: integer}
      - {name: body, kind: text}
`

var ctx = context.Background()

// fixture is a seeded SQLite database with a builder over it.
type fixture struct {
	db  *sql.DB
	reg *Registry
	b   *Builder
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, dialect.SQLite(), nil)
}

func newFixtureWith(t *testing.T, d dialect.Dialect, v Validator) *fixture {
	t.Helper()
	reg, err := ParseSchema([]byte(blogSchema))
	testutil.Must(t, err)
	db := testutil.SetupSQLite(t)
	for _, name := range reg.Names() {
		def, _ := reg.Get(name)
		testutil.CreateTables(t, db, dialect.SQLite(), def)
	}
	testutil.ExecSQL(t, db,
		`INSERT INTO users (id, name, age) VALUES (1, 'Alex', 30), (2, 'Bob', 17), (3, 'Anna', 25)`,
		`INSERT INTO posts (id, user_id, title, published) VALUES (10, 1, 'first', 1), (11, 1, 'second', 0), (12, 2, 'bob post', 1)`,
		`INSERT INTO comments (id, post_id, body) VALUES (100, 10, 'c1'), (101, 10, 'c2'), (102, 10, 'c3'), (103, 12, 'c4')`,
	)
	b, err := newBuilder(Config{DB: db, Registry: reg, Validator: v}, d)
	testutil.Must(t, err)
	return &fixture{db: db, reg: reg, b: b}
}

func (f *fixture) model(t *testing.T, table string, opts Options) Model {
	t.Helper()
	v, err := f.b.Model(table, opts)
	testutil.Must(t, err)
	return v
}

// idsDialect is SQLite that reports only generated ids, like MySQL.
type idsDialect struct {
	dialect.Dialect
}

func (idsDialect) Returning() dialect.ReturningMode { return dialect.ReturningIDs }

// countingConn fails every statement and counts the attempts.
type countingConn struct {
	calls int
}

var errNoDatabase = errors.New("no database")

func (c *countingConn) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	c.calls++
	return nil, errNoDatabase
}

func (c *countingConn) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	c.calls++
	return nil, errNoDatabase
}

// ids extracts the "id" field of each row.
func ids(rows []Row) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["id"]
	}
	return out
}
