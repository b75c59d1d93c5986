package dal

import (
	"fmt"
	"strings"
)

// Criterion is a single search predicate: column, comparator, value. A query
// built from several criteria joins them with AND.
type Criterion struct {
	Column string
	Op     string
	Value  any
}

// Eq matches rows where the column equals the value.
func Eq(column string, value any) Criterion {
	return Criterion{Column: column, Op: "=", Value: value}
}

// Neq matches rows where the column does not equal the value.
func Neq(column string, value any) Criterion {
	return Criterion{Column: column, Op: "!=", Value: value}
}

// Gt matches rows where the column is greater than the value.
func Gt(column string, value any) Criterion {
	return Criterion{Column: column, Op: ">", Value: value}
}

// Gte matches rows where the column is greater than or equal to the value.
func Gte(column string, value any) Criterion {
	return Criterion{Column: column, Op: ">=", Value: value}
}

// Lt matches rows where the column is less than the value.
func Lt(column string, value any) Criterion {
	return Criterion{Column: column, Op: "<", Value: value}
}

// Lte matches rows where the column is less than or equal to the value.
func Lte(column string, value any) Criterion {
	return Criterion{Column: column, Op: "<=", Value: value}
}

// Like matches rows where the column matches the SQL LIKE pattern.
func Like(column string, pattern string) Criterion {
	return Criterion{Column: column, Op: "LIKE", Value: pattern}
}

// IsNull matches rows where the column is NULL.
func IsNull(column string) Criterion {
	return Criterion{Column: column, Op: "IS", Value: nil}
}

// NotNull matches rows where the column is not NULL.
func NotNull(column string) Criterion {
	return Criterion{Column: column, Op: "IS NOT", Value: nil}
}

// Where builds a criterion with an arbitrary comparator. The comparator is
// checked against the allowed set when the query is built, so a typo or an
// injection attempt fails before any SQL runs.
func Where(column, op string, value any) Criterion {
	return Criterion{Column: column, Op: op, Value: value}
}

// allowedOps is the comparator whitelist. Values always travel as bind
// parameters, the comparator itself is the only criterion part interpolated
// into SQL, which is why it must come from this set.
var allowedOps = map[string]bool{
	"=":        true,
	"!=":       true,
	"<>":       true,
	"<":        true,
	"<=":       true,
	">":        true,
	">=":       true,
	"LIKE":     true,
	"NOT LIKE": true,
	"IS":       true,
	"IS NOT":   true,
}

// normalizeOp canonicalizes a comparator for the whitelist lookup: case
// folded, surrounding space trimmed, internal runs of space collapsed.
func normalizeOp(op string) string {
	return strings.ToUpper(strings.Join(strings.Fields(op), " "))
}

// criteriaColumns collects the column names referenced by the criteria.
func criteriaColumns(criteria []Criterion) []string {
	cols := make([]string, 0, len(criteria))
	for _, c := range criteria {
		cols = append(cols, c.Column)
	}
	return cols
}

// buildWhere renders criteria as an AND-joined predicate list without the
// WHERE keyword. argN is the index of the first bind parameter, which lets
// UPDATE statements continue numbering after their SET arguments. IS and
// IS NOT render as literal NULL tests and require a nil value, because the
// engines do not accept a bind parameter after IS.
func buildWhere(dl dialect, criteria []Criterion, argN int) (string, []any, error) {
	var sb strings.Builder
	var args []any
	for i, c := range criteria {
		if !validIdent(c.Column) {
			return "", nil, fmt.Errorf("column %q: %w", c.Column, ErrBadIdentifier)
		}
		op := normalizeOp(c.Op)
		if !allowedOps[op] {
			return "", nil, fmt.Errorf("operator %q: %w", c.Op, ErrBadOperator)
		}
		if i > 0 {
			sb.WriteString(" AND ")
		}
		if op == "IS" || op == "IS NOT" {
			if c.Value != nil {
				return "", nil, fmt.Errorf("operator %q takes no value, use NULL tests only: %w", op, ErrBadOperator)
			}
			sb.WriteString(dl.quoteIdent(c.Column) + " " + op + " NULL")
			continue
		}
		sb.WriteString(dl.quoteIdent(c.Column) + " " + op + " " + dl.placeholder(argN))
		args = append(args, c.Value)
		argN++
	}
	return sb.String(), args, nil
}
