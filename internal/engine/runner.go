// Package engine executes compiled statements against a database connection,
// logging each statement and normalising scanned values.
package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
	"github.com/hlop3z/alabq/internal/dialect"
	"github.com/hlop3z/alabq/internal/sqlgen"
)

// Conn is a connection statements run on: *sql.DB, *sql.Tx or *sql.Conn.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Runner executes statements for one connection and dialect.
type Runner struct {
	conn    Conn
	dialect dialect.Dialect
	logger  *slog.Logger
}

// NewRunner creates a new statement runner.
// Returns nil if conn or dialect is nil. A nil logger uses slog.Default().
func NewRunner(conn Conn, d dialect.Dialect, logger *slog.Logger) *Runner {
	if conn == nil || d == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{conn: conn, dialect: d, logger: logger}
}

// Dialect returns the dialect statements are rendered for.
func (r *Runner) Dialect() dialect.Dialect {
	return r.dialect
}

// Statement is a compiled statement with what it is for, used in logs and errors.
type Statement struct {
	Op    string // "select rows", "insert rows", ...
	Table string
	Expr  sqlgen.Expr
}

// Render returns the SQL text and arguments of the statement.
func (s Statement) Render(d dialect.Dialect) (string, []any) {
	return sqlgen.Build(d, s.Expr)
}

// Result is a scanned row set. Values are positional and normalised by the
// kinds the caller passed (or only []byte to string when none were given).
type Result struct {
	Columns []string
	Rows    [][]any
}

// Query runs a row-returning statement. kinds[i] describes the i-th selected
// column and may be shorter than the select list.
func (r *Runner) Query(ctx context.Context, stmt Statement, kinds []ast.Kind) (*Result, error) {
	query, args := stmt.Render(r.dialect)
	start := time.Now()

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.fail(stmt, query, args, start, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, r.fail(stmt, query, args, start, err)
	}

	out := &Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, r.fail(stmt, query, args, start, err)
		}
		for i, v := range vals {
			var kind ast.Kind
			if i < len(kinds) {
				kind = kinds[i]
			}
			vals[i] = Normalize(v, kind)
		}
		out.Rows = append(out.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail(stmt, query, args, start, err)
	}

	r.logger.Debug("query executed",
		"op", stmt.Op,
		"table", stmt.Table,
		"sql", query,
		"args", args,
		"rows", len(out.Rows),
		"duration", time.Since(start))
	return out, nil
}

// Exec runs a statement that returns no rows.
func (r *Runner) Exec(ctx context.Context, stmt Statement) (sql.Result, error) {
	query, args := stmt.Render(r.dialect)
	start := time.Now()

	res, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, r.fail(stmt, query, args, start, err)
	}

	r.logger.Debug("statement executed",
		"op", stmt.Op,
		"table", stmt.Table,
		"sql", query,
		"args", args,
		"duration", time.Since(start))
	return res, nil
}

// fail logs a failed statement and wraps the driver error. The driver error
// stays reachable with errors.Unwrap and errors.As.
func (r *Runner) fail(stmt Statement, query string, args []any, start time.Time, err error) error {
	r.logger.Warn("statement failed",
		"op", stmt.Op,
		"table", stmt.Table,
		"sql", query,
		"args", args,
		"duration", time.Since(start),
		"error", err)
	return alerr.WrapSQL(err, stmt.Op, stmt.Table).WithSQL(query)
}
