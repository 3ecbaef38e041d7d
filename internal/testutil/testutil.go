// Package testutil provides test helpers for alabq.
// It includes database setup, SQL assertions and error assertions.
package testutil

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/hlop3z/alabq/internal/alerr"
)

var whitespace = regexp.MustCompile(`\s+`)

// -----------------------------------------------------------------------------
// SQL Assertions
// -----------------------------------------------------------------------------

// NormalizeSQL collapses whitespace runs to one space, trims the ends and
// upper-cases the statement so formatting differences do not matter.
func NormalizeSQL(sql string) string {
	return strings.ToUpper(strings.TrimSpace(whitespace.ReplaceAllString(sql, " ")))
}

// AssertSQL compares two SQL strings after normalizing them.
func AssertSQL(t *testing.T, got, want string) {
	t.Helper()

	if NormalizeSQL(got) != NormalizeSQL(want) {
		t.Errorf("SQL mismatch:\ngot:  %s\nwant: %s", got, want)
	}
}

// AssertSQLContains checks that sql contains substr, both normalized.
func AssertSQLContains(t *testing.T, sql, substr string) {
	t.Helper()

	if !strings.Contains(NormalizeSQL(sql), NormalizeSQL(substr)) {
		t.Errorf("SQL does not contain expected fragment:\nsql:      %s\nfragment: %s", sql, substr)
	}
}

// AssertArgs checks the bound arguments of a statement.
func AssertArgs(t *testing.T, got []any, want ...any) {
	t.Helper()

	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args mismatch:\ngot:  %#v\nwant: %#v", got, want)
	}
}

// -----------------------------------------------------------------------------
// Error Assertions
// -----------------------------------------------------------------------------

// AssertError checks that err carries the expected error code.
func AssertError(t *testing.T, err error, code alerr.Code) {
	t.Helper()

	if err == nil {
		t.Errorf("expected error with code %s, got nil", code)
		return
	}
	if got := alerr.GetErrorCode(err); got != code {
		t.Errorf("expected error code %s, got %s\nerror: %v", code, got, err)
	}
}

// AssertNoError fails the test when err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

// AssertErrorContains checks that the error message contains substr.
func AssertErrorContains(t *testing.T, err error, substr string) {
	t.Helper()

	if err == nil {
		t.Errorf("expected error containing %q, got nil", substr)
		return
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("error message does not contain %q\ngot: %v", substr, err)
	}
}

// Must stops the test when err is not nil.
func Must(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// -----------------------------------------------------------------------------
// Value Assertions
// -----------------------------------------------------------------------------

// AssertEqual is a generic equality check for testing.
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()

	if got != want {
		t.Errorf("values not equal:\ngot:  %v\nwant: %v", got, want)
	}
}

// AssertDeepEqual compares values with reflect.DeepEqual.
func AssertDeepEqual(t *testing.T, got, want any) {
	t.Helper()

	if !reflect.DeepEqual(got, want) {
		t.Errorf("values not equal:\ngot:  %#v\nwant: %#v", got, want)
	}
}

// AssertLen checks the length of a slice.
func AssertLen[T any](t *testing.T, got []T, want int) {
	t.Helper()

	if len(got) != want {
		t.Errorf("length = %d, want %d\nvalue: %#v", len(got), want, got)
	}
}

// AssertTrue checks that a condition is true.
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()

	if !condition {
		t.Errorf("expected true: %s", msg)
	}
}
