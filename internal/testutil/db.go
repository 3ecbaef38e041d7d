package testutil

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hlop3z/alabq/internal/ast"
)

// DDL renders CREATE TABLE statements. Every dialect implements it.
type DDL interface {
	CreateTableSQL(def *ast.TableDef) (string, error)
}

// SetupSQLite creates a private in-memory SQLite database for one test.
// The connection is automatically closed when the test completes.
func SetupSQLite(t *testing.T) *sql.DB {
	t.Helper()

	// A named shared-cache database keeps every pooled connection on the
	// same data while isolating it from other tests.
	dsn := "file:" + strings.ReplaceAll(uuid.NewString(), "-", "") + "?mode=memory&cache=shared"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite connection: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("failed to ping sqlite: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CreateTables creates every table of defs using the dialect's DDL.
func CreateTables(t *testing.T, db *sql.DB, d DDL, defs ...*ast.TableDef) {
	t.Helper()

	for _, def := range defs {
		stmt, err := d.CreateTableSQL(def)
		if err != nil {
			t.Fatalf("failed to render table %s: %v", def.Name, err)
		}
		ExecSQL(t, db, stmt)
	}
}

// ExecSQL executes statements, stopping the test on the first failure.
func ExecSQL(t *testing.T, db *sql.DB, stmts ...string) {
	t.Helper()

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to execute SQL: %v\nSQL: %s", err, stmt)
		}
	}
}

// AssertRowCount checks the number of rows in a table.
func AssertRowCount(t *testing.T, db *sql.DB, table string, want int) {
	t.Helper()

	var got int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&got); err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	if got != want {
		t.Errorf("table %s has %d rows, want %d", table, got, want)
	}
}
