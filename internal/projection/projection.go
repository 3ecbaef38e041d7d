// Package projection shapes query results with select (allow-list) and
// exclude (deny-list) specs.
//
// A Spec maps field names to true (keep or drop the field), false (ignored) or
// a nested Spec applied to a relation field. Whenever a spec would leave an
// object with no fields, the object keeps all of its fields instead.
package projection

// Row is one result object.
type Row = map[string]any

// Spec is a select or exclude specification.
type Spec map[string]any

// asSpec returns v as a nested spec when it is one.
func asSpec(v any) (Spec, bool) {
	switch s := v.(type) {
	case Spec:
		return s, true
	case map[string]any:
		return Spec(s), true
	}
	return nil, false
}

// Empty reports whether the spec selects nothing.
func (s Spec) Empty() bool {
	for _, v := range s {
		if v == true {
			return false
		}
		if _, ok := asSpec(v); ok {
			return false
		}
	}
	return true
}

// BuildSelectProjection returns the columns a flat query should read.
// Select is applied first, then exclude. Nested specs name relations, not
// columns, and are ignored here. An empty result means every column.
func BuildSelectProjection(columns []string, sel, excl Spec) []string {
	picked := make([]string, 0, len(columns))
	for _, c := range columns {
		if len(sel) > 0 && !sel.Empty() && sel[c] != true {
			continue
		}
		if excl[c] == true {
			continue
		}
		picked = append(picked, c)
	}
	if len(picked) == 0 {
		return append([]string(nil), columns...)
	}
	return picked
}

// ApplySelect keeps only the fields named by spec, recursing into nested
// specs. Lists are handled element-wise; scalars are returned unchanged.
// The input is never modified.
func ApplySelect(value any, spec Spec) any {
	if spec.Empty() {
		return value
	}
	return walk(value, func(row Row) Row { return selectRow(row, spec) })
}

// ApplyExclude drops the fields named by spec, recursing into nested specs.
// The input is never modified.
func ApplyExclude(value any, spec Spec) any {
	if len(spec) == 0 {
		return value
	}
	return walk(value, func(row Row) Row { return excludeRow(row, spec) })
}

func walk(value any, fn func(Row) Row) any {
	switch v := value.(type) {
	case Row:
		if v == nil {
			return v
		}
		return fn(v)
	case []Row:
		out := make([]Row, len(v))
		for i, row := range v {
			if row == nil {
				continue
			}
			out[i] = fn(row)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = walk(item, fn)
		}
		return out
	}
	return value
}

func selectRow(row Row, spec Spec) Row {
	out := make(Row, len(spec))
	for k, v := range row {
		want, ok := spec[k]
		if !ok {
			continue
		}
		if want == true {
			out[k] = v
			continue
		}
		if nested, ok := asSpec(want); ok {
			out[k] = ApplySelect(v, nested)
		}
	}
	if len(out) == 0 {
		return copyRow(row)
	}
	return out
}

func excludeRow(row Row, spec Spec) Row {
	out := make(Row, len(row))
	for k, v := range row {
		drop, ok := spec[k]
		if !ok {
			out[k] = v
			continue
		}
		if drop == true {
			continue
		}
		if nested, ok := asSpec(drop); ok {
			out[k] = ApplyExclude(v, nested)
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return copyRow(row)
	}
	return out
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
