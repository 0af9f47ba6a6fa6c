package rowstore

import (
	"fmt"
	"strings"
)

// compileWhere converts filters into a parameterized WHERE clause.
//
// Returns an empty clause for zero filters. All values are parameterized,
// never interpolated, so caller-supplied values can't change query shape.
func compileWhere(filters []Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	terms := make([]string, 0, len(filters))
	params := make([]any, 0, len(filters))

	for _, f := range filters {
		if f.Column == "" {
			return "", nil, fmt.Errorf("filter with empty column")
		}
		if !identOK(f.Column) {
			return "", nil, fmt.Errorf("invalid column name %q", f.Column)
		}

		switch f.Op {
		case OpEq:
			terms = append(terms, f.Column+" = ?")
			params = append(params, f.Value)
		case OpEqFold:
			// SQLite's NOCASE only folds ASCII; callers fold Unicode keys
			// before they reach the store, so ASCII folding is sufficient here.
			terms = append(terms, f.Column+" = ? COLLATE NOCASE")
			params = append(params, f.Value)
		case OpGte:
			terms = append(terms, f.Column+" >= ?")
			params = append(params, f.Value)
		case OpLte:
			terms = append(terms, f.Column+" <= ?")
			params = append(params, f.Value)
		case OpIn:
			values, ok := f.Value.([]any)
			if !ok {
				return "", nil, fmt.Errorf("in filter on %s: value must be []any, got %T", f.Column, f.Value)
			}
			if len(values) == 0 {
				// Empty membership matches nothing.
				terms = append(terms, "1 = 0")
				continue
			}
			placeholders := strings.Repeat("?, ", len(values)-1) + "?"
			terms = append(terms, f.Column+" IN ("+placeholders+")")
			params = append(params, values...)
		default:
			return "", nil, fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}

	return " WHERE " + strings.Join(terms, " AND "), params, nil
}

// identOK reports whether s is a safe SQL identifier (letters, digits,
// underscore, not starting with a digit). Table and column names come from
// code, not users, but the check keeps a typo from becoming an injection.
func identOK(s string) bool {
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return len(s) > 0
}
