// Package dal implements a small data access layer for relational databases.
// It keeps an introspected schema cache and uses it to sanity check table
// and column names before generating SQL, so callers get clear errors
// instead of engine syntax noise. Values always travel as bind parameters.
package dal

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql" // mysql driver
	_ "github.com/lib/pq"              // postgres driver
	_ "modernc.org/sqlite"             // pure-Go sqlite driver
)

// Row is a single result row keyed by column name.
type Row map[string]any

// DB wraps a SQL database with schema-checked statement generation. All
// methods are safe for concurrent use.
type DB struct {
	db      *sql.DB
	dialect dialect
	mu      sync.RWMutex
	schema  map[string][]string
}

// Open connects to the database described by conn and loads its schema. The
// engine is picked from the connection string shape: postgres URLs and mysql
// TCP DSNs go to their drivers, everything else is opened as a sqlite file.
func Open(conn string) (*DB, error) {
	dl, err := resolveDialect(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database type: %w", err)
	}

	db, err := sql.Open(dl.driver, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to database: %w", err), closeErr)
	}

	d := &DB{db: db, dialect: dl}
	schema, err := d.introspect()
	if err != nil {
		closeErr := db.Close()
		return nil, errors.Join(err, closeErr)
	}
	d.schema = schema

	slog.Debug("Database opened", "dialect", dl.name, "tables", len(schema))
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Tables returns the known table names in sorted order.
func (d *DB) Tables() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.schema))
	for name := range d.schema {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Columns returns the column names of a table in definition order.
func (d *DB) Columns(table string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cols, ok := d.schema[table]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", table, ErrUnknownTable)
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, nil
}

// Refresh re-reads the table layout from the database. Useful when another
// process has changed the schema underneath us.
func (d *DB) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.refreshLocked()
}

func (d *DB) refreshLocked() error {
	schema, err := d.introspect()
	if err != nil {
		return fmt.Errorf("failed to refresh schema: %w", err)
	}
	d.schema = schema
	return nil
}

// CreateTable creates a new table from the field definitions and refreshes
// the schema cache. Field names are validated, but types and options are
// interpolated into the DDL as given and must not come from untrusted input.
func (d *DB) CreateTable(table string, fields []Field) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !validIdent(table) {
		return fmt.Errorf("table %q: %w", table, ErrBadIdentifier)
	}
	if _, ok := d.schema[table]; ok {
		return fmt.Errorf("table %q: %w", table, ErrTableExists)
	}
	if len(fields) == 0 {
		return fmt.Errorf("table %q: no fields given", table)
	}

	defs := make([]string, 0, len(fields))
	for _, f := range fields {
		if !validIdent(f.Name) {
			return fmt.Errorf("column %q: %w", f.Name, ErrBadIdentifier)
		}
		if f.Type == "" {
			return fmt.Errorf("column %q: no type given", f.Name)
		}
		def := d.dialect.quoteIdent(f.Name) + " " + f.Type
		if f.Options != "" {
			def += " " + f.Options
		}
		defs = append(defs, def)
	}

	query := fmt.Sprintf("CREATE TABLE %s (%s)", d.dialect.quoteIdent(table), strings.Join(defs, ", "))
	slog.Debug("Executing statement", "query", query)
	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create table %q: %w", table, err)
	}

	slog.Info("Table created", "table", table, "columns", len(fields))
	return d.refreshLocked()
}

// DropTable removes a table and refreshes the schema cache.
func (d *DB) DropTable(table string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkTable(table); err != nil {
		return err
	}

	query := "DROP TABLE " + d.dialect.quoteIdent(table)
	slog.Debug("Executing statement", "query", query)
	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %q: %w", table, err)
	}

	slog.Info("Table dropped", "table", table)
	return d.refreshLocked()
}

// Insert adds a row using positional values, one per table column in
// definition order. The statement is the bare INSERT INTO t VALUES (...)
// form, so a column count mismatch surfaces as an engine error.
func (d *DB) Insert(table string, values ...any) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkTable(table); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("table %q: no values given", table)
	}

	marks := make([]string, len(values))
	for i := range values {
		marks[i] = d.dialect.placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO %s VALUES (%s)", d.dialect.quoteIdent(table), strings.Join(marks, ", "))
	return d.execCount(query, values)
}

// InsertRecord adds a row from a column to value mapping. Unknown columns
// are rejected before any SQL runs, with every offending column reported.
// Columns are emitted in sorted order so the generated statement is
// deterministic for a given record shape.
func (d *DB) InsertRecord(table string, record map[string]any) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkTable(table); err != nil {
		return 0, err
	}
	if len(record) == 0 {
		return 0, fmt.Errorf("table %q: %w", table, ErrEmptyRecord)
	}

	cols := sortedColumns(record)
	if err := d.checkColumns(table, cols); err != nil {
		return 0, err
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = d.dialect.quoteIdent(col)
		marks[i] = d.dialect.placeholder(i + 1)
		args[i] = record[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.dialect.quoteIdent(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	return d.execCount(query, args)
}

// InsertRecords adds multiple rows inside a single transaction. Column names
// are taken from the first record, later records missing one of those
// columns insert NULL for it. Returns the number of rows inserted.
func (d *DB) InsertRecords(table string, records []map[string]any) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkTable(table); err != nil {
		return 0, err
	}
	cols := sortedColumns(records[0])
	if len(cols) == 0 {
		return 0, fmt.Errorf("table %q: %w", table, ErrEmptyRecord)
	}
	if err := d.checkColumns(table, cols); err != nil {
		return 0, err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = d.dialect.quoteIdent(col)
		marks[i] = d.dialect.placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.dialect.quoteIdent(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	stmt, err := tx.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		values := make([]any, len(cols))
		for i, col := range cols {
			values[i] = record[col]
		}
		if _, err := stmt.Exec(values...); err != nil {
			return 0, fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Debug("Records inserted", "table", table, "count", len(records))
	return int64(len(records)), nil
}

// Get fetches a single row by its id column, optionally restricting the
// selected fields. Returns a nil Row and nil error when no row matches.
func (d *DB) Get(table string, id any, fields ...string) (Row, error) {
	rows, err := d.Search(table, []Criterion{Eq("id", id)}, fields...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Search runs a criteria query against the table. Criteria are joined with
// AND, no criteria means every row. Fields restrict the projection, the
// default is all columns in definition order.
func (d *DB) Search(table string, criteria []Criterion, fields ...string) ([]Row, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.checkTable(table); err != nil {
		return nil, err
	}
	if err := d.checkColumns(table, criteriaColumns(criteria)); err != nil {
		return nil, err
	}

	projection := "*"
	if len(fields) > 0 {
		if err := d.checkColumns(table, fields); err != nil {
			return nil, err
		}
		quoted := make([]string, len(fields))
		for i, f := range fields {
			quoted[i] = d.dialect.quoteIdent(f)
		}
		projection = strings.Join(quoted, ", ")
	}

	where, args, err := buildWhere(d.dialect, criteria, 1)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + projection + " FROM " + d.dialect.quoteIdent(table)
	if where != "" {
		query += " WHERE " + where
	}

	slog.Debug("Executing query", "query", query, "args", len(args))
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %q: %w", table, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// Update modifies the rows matching the criteria and returns the affected
// row count. Criteria are required, refusing the unfiltered form that would
// rewrite the whole table.
func (d *DB) Update(table string, set map[string]any, criteria []Criterion) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkTable(table); err != nil {
		return 0, err
	}
	if len(set) == 0 {
		return 0, fmt.Errorf("table %q: %w", table, ErrEmptyRecord)
	}
	if len(criteria) == 0 {
		return 0, fmt.Errorf("update on %q: %w", table, ErrNoCriteria)
	}

	cols := sortedColumns(set)
	if err := d.checkColumns(table, cols); err != nil {
		return 0, err
	}
	if err := d.checkColumns(table, criteriaColumns(criteria)); err != nil {
		return 0, err
	}

	assignments := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(criteria))
	for i, col := range cols {
		assignments[i] = d.dialect.quoteIdent(col) + " = " + d.dialect.placeholder(i+1)
		args = append(args, set[col])
	}

	where, whereArgs, err := buildWhere(d.dialect, criteria, len(cols)+1)
	if err != nil {
		return 0, err
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		d.dialect.quoteIdent(table), strings.Join(assignments, ", "), where)
	return d.execCount(query, args)
}

// Delete removes the rows matching the criteria and returns the affected
// row count. Criteria are required, same as for Update.
func (d *DB) Delete(table string, criteria []Criterion) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkTable(table); err != nil {
		return 0, err
	}
	if len(criteria) == 0 {
		return 0, fmt.Errorf("delete on %q: %w", table, ErrNoCriteria)
	}
	if err := d.checkColumns(table, criteriaColumns(criteria)); err != nil {
		return 0, err
	}

	where, args, err := buildWhere(d.dialect, criteria, 1)
	if err != nil {
		return 0, err
	}

	query := "DELETE FROM " + d.dialect.quoteIdent(table) + " WHERE " + where
	return d.execCount(query, args)
}

// execCount runs a statement and returns the affected row count.
func (d *DB) execCount(query string, args []any) (int64, error) {
	slog.Debug("Executing statement", "query", query, "args", len(args))
	res, err := d.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

// sortedColumns returns the record's keys in sorted order so generated SQL
// is deterministic for a given record shape.
func sortedColumns(record map[string]any) []string {
	cols := make([]string, 0, len(record))
	for col := range record {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// scanRows reads all result rows into maps keyed by column name. Text
// columns come back from some drivers as []byte, those are normalized to
// string so rows look the same across engines.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	// Initialize with empty slice to avoid returning nil
	out := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
