package dal

import "errors"

// Sentinel errors returned before any SQL reaches the engine. Driver errors
// pass through wrapped with operation context instead.
var (
	// ErrUnknownTable is returned when an operation names a table that is not
	// in the database schema.
	ErrUnknownTable = errors.New("table does not exist in database")

	// ErrUnknownColumn is returned when a record, projection or criterion
	// names a column the table does not have.
	ErrUnknownColumn = errors.New("column does not exist in table")

	// ErrTableExists is returned by CreateTable when the table is already
	// present in the database.
	ErrTableExists = errors.New("table already exists in database")

	// ErrNoCriteria is returned by Update and Delete when no criteria are
	// given. An unfiltered statement would touch every row in the table, so
	// it is refused outright.
	ErrNoCriteria = errors.New("criteria required")

	// ErrBadIdentifier is returned when a table or column name is not a
	// plain SQL identifier.
	ErrBadIdentifier = errors.New("invalid identifier")

	// ErrBadOperator is returned when a criterion comparator is not in the
	// allowed set.
	ErrBadOperator = errors.New("operator not allowed")

	// ErrEmptyRecord is returned when an insert or update mapping has no
	// columns.
	ErrEmptyRecord = errors.New("record has no columns")
)
