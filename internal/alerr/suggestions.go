package alerr

import (
	"sort"
	"strings"
)

// NewUnknownRelationError reports a with/include key that is not a relation of table.
// known lists the relations the table does declare; it feeds the suggestion.
func NewUnknownRelationError(table, relation string, known []string) *Error {
	e := New(ErrUnknownRelation, "unknown relation").
		WithTable(table).
		WithRelation(relation)
	return withCandidates(e, relation, known, "relations")
}

// NewUnknownColumnError reports a column name that table does not declare.
func NewUnknownColumnError(table, column string, known []string) *Error {
	e := New(ErrUnknownColumn, "unknown column").
		WithTable(table).
		WithColumn(column)
	return withCandidates(e, column, known, "columns")
}

// NewNotImplementedError reports an input shape that is recognised but unsupported.
func NewNotImplementedError(feature string) *Error {
	return New(ErrNotImplemented, feature+" is not implemented")
}

func withCandidates(e *Error, input string, known []string, label string) *Error {
	if s := SuggestSimilar(input, known); s != "" {
		e.WithHelp(s)
	}
	if len(known) > 0 {
		sorted := append([]string(nil), known...)
		sort.Strings(sorted)
		e.With(label, strings.Join(sorted, ", "))
	}
	return e
}
