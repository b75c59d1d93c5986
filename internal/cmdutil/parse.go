// Package cmdutil holds shared helpers for the CLI commands: parsing the
// flag grammar into dal types and resolving output locations.
package cmdutil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lepinkainen/dalite/internal/dal"
)

// ParseField parses a column definition of the form NAME:TYPE or
// NAME:TYPE:OPTIONS, for example "id:INTEGER:PRIMARY KEY".
func ParseField(spec string) (dal.Field, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 {
		return dal.Field{}, fmt.Errorf("invalid field %q, expected NAME:TYPE[:OPTIONS]", spec)
	}

	field := dal.Field{
		Name: strings.TrimSpace(parts[0]),
		Type: strings.TrimSpace(parts[1]),
	}
	if len(parts) == 3 {
		field.Options = strings.TrimSpace(parts[2])
	}
	if field.Name == "" || field.Type == "" {
		return dal.Field{}, fmt.Errorf("invalid field %q, name and type are required", spec)
	}
	return field, nil
}

// ParseAssignment parses a COLUMN=VALUE pair, as used by --set flags. The
// value goes through the same type guessing as conditions.
func ParseAssignment(spec string) (string, any, error) {
	parts := strings.SplitN(spec, "=", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("invalid assignment %q, expected COLUMN=VALUE", spec)
	}

	column := strings.TrimSpace(parts[0])
	if column == "" {
		return "", nil, fmt.Errorf("invalid assignment %q, column name is required", spec)
	}
	return column, ParseValue(strings.TrimSpace(parts[1])), nil
}

// ParseCondition parses a search condition of the form "COLUMN OP VALUE",
// for example "age >= 30", "name LIKE F%" or "age IS NULL". Two-word
// comparators (NOT LIKE, IS NOT) are recognized, and the value may contain
// spaces.
func ParseCondition(expr string) (dal.Criterion, error) {
	fields := strings.Fields(expr)
	if len(fields) < 2 {
		return dal.Criterion{}, fmt.Errorf("invalid condition %q, expected COLUMN OP VALUE", expr)
	}

	column := fields[0]
	op := fields[1]
	rest := fields[2:]

	// Two-word comparators swallow the next token
	if len(fields) >= 3 {
		twoWord := strings.ToUpper(op + " " + fields[2])
		if twoWord == "NOT LIKE" || twoWord == "IS NOT" {
			op = twoWord
			rest = fields[3:]
		}
	}

	upperOp := strings.ToUpper(op)
	if upperOp == "IS" || upperOp == "IS NOT" {
		if len(rest) != 1 || !strings.EqualFold(rest[0], "NULL") {
			return dal.Criterion{}, fmt.Errorf("invalid condition %q, %s only supports NULL", expr, upperOp)
		}
		return dal.Where(column, upperOp, nil), nil
	}

	if len(rest) == 0 {
		return dal.Criterion{}, fmt.Errorf("invalid condition %q, missing value", expr)
	}
	return dal.Where(column, op, ParseValue(strings.Join(rest, " "))), nil
}

// ParseValue guesses a Go type for a flag value so comparisons against
// numeric columns bind as numbers. Quoting a value keeps it a string:
// 'Frank' and "30" bind as text with the quotes stripped.
func ParseValue(s string) any {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
