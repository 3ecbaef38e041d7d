package alabq

import (
	"errors"
	"fmt"

	"github.com/hlop3z/alabq/internal/alerr"
)

// Sentinel errors for common error conditions.
// Use errors.Is() to check for these errors. Errors returned by models carry
// a code and structured context; each matches the sentinel of its code.
var (
	// ErrUnknownRelation is returned when With names a relation the table does not have.
	ErrUnknownRelation error = alerr.New(alerr.ErrUnknownRelation, "unknown relation")

	// ErrUnknownColumn is returned when a where value, payload or target names a missing column.
	ErrUnknownColumn error = alerr.New(alerr.ErrUnknownColumn, "unknown column")

	// ErrInvalidOperator is returned when a RawOp names an unsupported operator.
	ErrInvalidOperator error = alerr.New(alerr.ErrInvalidOperator, "invalid operator")

	// ErrInvalidValue is returned when an input has a shape that cannot be compiled.
	ErrInvalidValue error = alerr.New(alerr.ErrInvalidValue, "invalid value")

	// ErrNotImplemented is returned for recognised but unsupported inputs,
	// such as a Model used as a where value or filtering on relation fields.
	ErrNotImplemented error = alerr.New(alerr.ErrNotImplemented, "not implemented")

	// ErrValidation is returned when the configured Validator rejects a payload.
	ErrValidation error = alerr.New(alerr.ErrValidation, "validation failed")

	// ErrSQLExecution is returned when the database rejects a statement.
	// errors.Unwrap yields the driver error unchanged.
	ErrSQLExecution error = alerr.New(alerr.ErrSQLExecution, "sql execution failed")

	// ErrSchemaNotFound is returned when a model names an unregistered table.
	ErrSchemaNotFound error = alerr.New(alerr.ErrSchemaNotFound, "schema not found")

	// ErrSchemaInvalid is returned when table metadata is malformed.
	ErrSchemaInvalid error = alerr.New(alerr.ErrSchemaInvalid, "schema invalid")

	// ErrUnsupportedDialect is returned when the dialect is not supported.
	ErrUnsupportedDialect error = alerr.New(alerr.EUnsupportedDialect, "unsupported dialect")

	// ErrConfig is returned when a configuration or rules file cannot be loaded.
	ErrConfig error = alerr.New(alerr.ErrConfig, "invalid configuration")

	// ErrMissingDatabaseURL is returned by Open when no database URL is provided.
	ErrMissingDatabaseURL = errors.New("alabq: database URL required")

	// ErrConnectionFailed is returned by Open when the database cannot be reached.
	ErrConnectionFailed = errors.New("alabq: connection failed")
)

// Code returns the machine-readable code of err ("E2010", ...), or "" when
// err carries none.
func Code(err error) string {
	return string(alerr.GetErrorCode(err))
}

// ConnectionError provides detailed information about a database connection error.
type ConnectionError struct {
	// URL is the database URL (with password redacted).
	URL string

	// Dialect is the database dialect (postgres, sqlite, mysql).
	Dialect string

	// Cause is the underlying error from the database driver.
	Cause error
}

// Error returns a formatted error message.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("alabq: failed to connect to %s database at %s: %v", e.Dialect, e.URL, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}
