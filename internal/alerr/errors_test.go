package alerr

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// Constructor Tests
// -----------------------------------------------------------------------------

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    Code
		message string
	}{
		{"schema error", ErrSchemaInvalid, "schema is invalid"},
		{"unknown relation", ErrUnknownRelation, "unknown relation"},
		{"not implemented", ErrNotImplemented, "relation where is not implemented"},
		{"SQL error", ErrSQLExecution, "SQL statement failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)
			if err.GetCode() != tt.code {
				t.Errorf("code = %v, want %v", err.GetCode(), tt.code)
			}
			if err.GetMessage() != tt.message {
				t.Errorf("message = %v, want %v", err.GetMessage(), tt.message)
			}
			if err.GetCause() != nil {
				t.Error("expected nil cause for New()")
			}
			if err.GetStack() == "" {
				t.Error("expected stack trace to be captured")
			}
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("wrap existing error", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := Wrap(ErrSQLExecution, cause, "failed to execute query")

		if err.GetCode() != ErrSQLExecution {
			t.Errorf("code = %v, want %v", err.GetCode(), ErrSQLExecution)
		}
		if err.GetCause() != cause {
			t.Error("cause should be the wrapped error")
		}
	})

	t.Run("wrap nil behaves like New", func(t *testing.T) {
		err := Wrap(ErrSQLExecution, nil, "no cause")
		if err.GetCause() != nil {
			t.Error("expected nil cause")
		}
	})
}

func TestWrapf(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrapf(ErrSQLConnection, cause, "failed to connect to %s on port %d", "localhost", 5432)

	expected := "failed to connect to localhost on port 5432"
	if err.GetMessage() != expected {
		t.Errorf("message = %v, want %v", err.GetMessage(), expected)
	}
}

// -----------------------------------------------------------------------------
// Format Tests
// -----------------------------------------------------------------------------

func TestErrorFormat(t *testing.T) {
	t.Run("code and context", func(t *testing.T) {
		err := New(ErrUnknownRelation, "unknown relation").
			WithTable("users").
			WithRelation("post")

		errStr := err.Error()
		if !strings.HasPrefix(errStr, "[E2010] unknown relation") {
			t.Errorf("error should start with code and message, got: %s", errStr)
		}
		if !strings.Contains(errStr, "relation: post") || !strings.Contains(errStr, "table: users") {
			t.Errorf("error should contain context, got: %s", errStr)
		}
		if strings.Index(errStr, "relation:") > strings.Index(errStr, "table:") {
			t.Errorf("context keys should be sorted, got: %s", errStr)
		}
	})

	t.Run("error with cause", func(t *testing.T) {
		err := WrapSQL(errors.New("connection timeout"), "select rows", "users")
		errStr := err.Error()
		if !strings.Contains(errStr, "cause: connection timeout") {
			t.Errorf("error should contain cause, got: %s", errStr)
		}
		if !strings.Contains(errStr, "failed to select rows") {
			t.Errorf("error should contain operation, got: %s", errStr)
		}
	})
}

// -----------------------------------------------------------------------------
// Matching Tests
// -----------------------------------------------------------------------------

func TestIs(t *testing.T) {
	t.Run("same code matches", func(t *testing.T) {
		if !errors.Is(New(ErrNotImplemented, "a"), New(ErrNotImplemented, "b")) {
			t.Error("errors with same code should match")
		}
	})

	t.Run("different codes do not match", func(t *testing.T) {
		if errors.Is(New(ErrNotImplemented, "a"), New(ErrUnknownRelation, "b")) {
			t.Error("errors with different codes should not match")
		}
	})

	t.Run("driver error stays reachable", func(t *testing.T) {
		err := WrapSQL(sql.ErrConnDone, "insert rows", "users")
		if !errors.Is(err, sql.ErrConnDone) {
			t.Error("errors.Is should find the wrapped driver error")
		}
		if errors.Unwrap(err) != sql.ErrConnDone {
			t.Error("Unwrap should yield the driver error unchanged")
		}
	})

	t.Run("code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(ErrUnknownColumn, "inner"))
		if !Is(err, ErrUnknownColumn) {
			t.Error("Is should find the code through %w")
		}
		if !HasCode(err) {
			t.Error("HasCode should be true")
		}
		if HasCode(errors.New("plain")) {
			t.Error("plain errors have no code")
		}
		if GetErrorCode(nil) != "" {
			t.Error("nil error has no code")
		}
	})
}

func TestHelps(t *testing.T) {
	err := New(ErrUnknownRelation, "unknown relation").
		WithHelp("did you mean 'posts'?").
		WithHelp("check the schema document")

	helps := err.Helps()
	if len(helps) != 2 || helps[0] != "did you mean 'posts'?" {
		t.Errorf("Helps() = %v", helps)
	}
}
