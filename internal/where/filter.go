// Package where compiles filter values into SQL predicates.
//
// A filter value for one column is a scalar (equality), an escaped value
// (Equals or RawOp), or an operator object (Filter, or a map with the same
// keys). A where value for a table maps column names to such filter values.
package where

import (
	"reflect"

	"github.com/hlop3z/alabq/internal/alerr"
)

// Filter is an operator object for one column. Every set field contributes one
// predicate and the predicates are ANDed, so {Gte: 18, Lt: 65} is a range.
type Filter struct {
	Eq         any
	Equal      any
	Not        any
	In         []any
	Nin        []any
	IsNull     *bool
	Gt         any
	Gte        any
	Lt         any
	Lte        any
	Between    []any
	NotBetween []any
	Like       any
	Ilike      any
	Or         []any
	And        []any
}

// Map is a table-shaped where value: column name to filter value.
type Map map[string]any

// All is a where value whose items must all hold. Each item is a where value
// of its own (Map, predicate, All); nil items are skipped.
type All []any

// Escaped is a filter value that bypasses operator inference.
// Its implementations are Equals and RawOp.
type Escaped interface {
	escaped()
}

// Equals forces literal equality with V, even when V looks like an operator object.
type Equals struct {
	V any
}

func (Equals) escaped() {}

// RawOp applies a named comparison operator ("gt", ">=", "notIlike", ...) to Operand.
type RawOp struct {
	Operator string
	Operand  any
}

func (RawOp) escaped() {}

// ModelFilter is implemented by values that carry another model's filter
// state. Compiling one as a where value is not supported.
type ModelFilter interface {
	ModelFilter() any
}

// Bool returns a pointer to b, for Filter.IsNull.
func Bool(b bool) *bool {
	return &b
}

// filterKeys maps the operator-object keys accepted in map form to their setters.
var filterKeys = map[string]func(f *Filter, v any) error{
	"eq":         func(f *Filter, v any) error { f.Eq = v; return nil },
	"equal":      func(f *Filter, v any) error { f.Equal = v; return nil },
	"not":        func(f *Filter, v any) error { f.Not = v; return nil },
	"in":         func(f *Filter, v any) (err error) { f.In, err = toList("in", v); return },
	"nin":        func(f *Filter, v any) (err error) { f.Nin, err = toList("nin", v); return },
	"gt":         func(f *Filter, v any) error { f.Gt = v; return nil },
	"gte":        func(f *Filter, v any) error { f.Gte = v; return nil },
	"lt":         func(f *Filter, v any) error { f.Lt = v; return nil },
	"lte":        func(f *Filter, v any) error { f.Lte = v; return nil },
	"like":       func(f *Filter, v any) error { f.Like = v; return nil },
	"ilike":      func(f *Filter, v any) error { f.Ilike = v; return nil },
	"between":    func(f *Filter, v any) (err error) { f.Between, err = toList("between", v); return },
	"notBetween": func(f *Filter, v any) (err error) { f.NotBetween, err = toList("notBetween", v); return },
	"or":         func(f *Filter, v any) (err error) { f.Or, err = toList("or", v); return },
	"and":        func(f *Filter, v any) (err error) { f.And, err = toList("and", v); return },
	"isNull": func(f *Filter, v any) error {
		b, ok := v.(bool)
		if !ok {
			return alerr.New(alerr.ErrInvalidValue, "isNull expects a boolean").With("value", v)
		}
		f.IsNull = &b
		return nil
	},
}

// FromMap converts the map form of an operator object. Keys that are not
// operators are ignored; nil values are treated as unset.
func FromMap(m map[string]any) (Filter, error) {
	var f Filter
	for k, v := range m {
		set, ok := filterKeys[k]
		if !ok || v == nil {
			continue
		}
		if err := set(&f, v); err != nil {
			return Filter{}, err
		}
	}
	return f, nil
}

// toList accepts any slice or array and returns its elements as []any.
func toList(key string, v any) ([]any, error) {
	if list, ok := v.([]any); ok {
		return list, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, alerr.Newf(alerr.ErrInvalidValue, "%s expects a list", key).With("value", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// isObject reports whether v is shaped like an operator object rather than a scalar.
func isObject(v any) bool {
	switch v.(type) {
	case Filter, *Filter, map[string]any, Map, Escaped, ModelFilter:
		return true
	}
	return false
}
