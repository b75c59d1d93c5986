package dal

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/hashicorp/go-multierror"
)

// identPattern matches plain SQL identifiers. Table and column names are
// interpolated into generated statements, so anything outside this pattern
// is rejected.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validIdent reports whether name is safe to use as a table or column
// identifier in generated SQL.
func validIdent(name string) bool {
	return identPattern.MatchString(name)
}

// Field describes one column in a CREATE TABLE statement.
type Field struct {
	// Name is the column identifier, validated against identPattern.
	Name string
	// Type is the column type, for example INTEGER or VARCHAR(255).
	Type string
	// Options holds trailing column constraints such as PRIMARY KEY or
	// NOT NULL. Optional.
	Options string
}

// introspect loads the table to column-list mapping from the live database.
// sqlite is read via sqlite_master and PRAGMA table_info, the server engines
// via information_schema. Columns keep their table definition order.
func (d *DB) introspect() (map[string][]string, error) {
	if d.dialect.name == "sqlite" {
		return d.introspectSQLite()
	}
	return d.introspectInformationSchema()
}

func (d *DB) introspectSQLite() (map[string][]string, error) {
	rows, err := d.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		if !validIdent(name) {
			// Tables created outside this tool can have names we refuse to
			// interpolate. Skip them rather than fail the whole load.
			slog.Warn("Skipping table with unusable name", "table", name)
			continue
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table list: %w", err)
	}

	schema := make(map[string][]string, len(tables))
	for _, table := range tables {
		cols, err := d.tableInfo(table)
		if err != nil {
			return nil, err
		}
		schema[table] = cols
	}
	return schema, nil
}

// tableInfo reads the column names of one sqlite table in definition order.
// PRAGMA table_info does not accept bind parameters, the table name has been
// validated before interpolation.
func (d *DB) tableInfo(table string) ([]string, error) {
	rows, err := d.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", d.dialect.quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %q: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notNull    int
			deflt      any
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &deflt, &primaryKey); err != nil {
			return nil, fmt.Errorf("failed to scan column of %q: %w", table, err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (d *DB) introspectInformationSchema() (map[string][]string, error) {
	var query string
	switch d.dialect.name {
	case "postgres":
		query = `SELECT c.table_name, c.column_name
			FROM information_schema.columns c
			JOIN information_schema.tables t
			  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
			WHERE c.table_schema = 'public' AND t.table_type = 'BASE TABLE'
			ORDER BY c.table_name, c.ordinal_position`
	default:
		query = `SELECT c.table_name, c.column_name
			FROM information_schema.columns c
			JOIN information_schema.tables t
			  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
			WHERE c.table_schema = DATABASE() AND t.table_type = 'BASE TABLE'
			ORDER BY c.table_name, c.ordinal_position`
	}

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to read information_schema: %w", err)
	}
	defer rows.Close()

	schema := make(map[string][]string)
	skipped := make(map[string]bool)
	for rows.Next() {
		var table, col string
		if err := rows.Scan(&table, &col); err != nil {
			return nil, fmt.Errorf("failed to scan schema row: %w", err)
		}
		if skipped[table] {
			continue
		}
		if _, ok := schema[table]; !ok && !validIdent(table) {
			slog.Warn("Skipping table with unusable name", "table", table)
			skipped[table] = true
			continue
		}
		schema[table] = append(schema[table], col)
	}
	return schema, rows.Err()
}

// checkTable verifies the table is present in the cached schema. Callers
// must hold at least a read lock.
func (d *DB) checkTable(table string) error {
	if _, ok := d.schema[table]; !ok {
		return fmt.Errorf("table %q: %w", table, ErrUnknownTable)
	}
	return nil
}

// checkColumns verifies every named column exists on the table, reporting
// all unknown columns in one aggregated error rather than stopping at the
// first. Callers must hold at least a read lock.
func (d *DB) checkColumns(table string, cols []string) error {
	known := make(map[string]bool, len(d.schema[table]))
	for _, c := range d.schema[table] {
		known[c] = true
	}
	errs := new(multierror.Error)
	for _, c := range cols {
		if !known[c] {
			errs = multierror.Append(errs, fmt.Errorf("column %q not in table %q: %w", c, table, ErrUnknownColumn))
		}
	}
	return errs.ErrorOrNil()
}
