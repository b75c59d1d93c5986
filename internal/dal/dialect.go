package dal

import (
	"fmt"
	"strings"
)

// dialect captures the engine-specific parts of SQL generation: driver name,
// bind parameter markers and identifier quoting.
type dialect struct {
	name   string
	driver string
}

var (
	sqliteDialect   = dialect{name: "sqlite", driver: "sqlite"}
	postgresDialect = dialect{name: "postgres", driver: "postgres"}
	mysqlDialect    = dialect{name: "mysql", driver: "mysql"}
)

// resolveDialect determines the database type from the connection string.
// Postgres URLs and mysql TCP DSNs are recognized by their shape, anything
// else is treated as a sqlite path. That keeps plain file names like
// ./dalite.db working without a scheme prefix.
func resolveDialect(conn string) (dialect, error) {
	switch {
	case conn == "":
		return dialect{}, fmt.Errorf("empty connection string")
	case strings.HasPrefix(conn, "postgres://") || strings.HasPrefix(conn, "postgresql://"):
		return postgresDialect, nil
	case strings.Contains(conn, "@tcp("):
		return mysqlDialect, nil
	default:
		return sqliteDialect, nil
	}
}

// placeholder returns the bind parameter marker for the n-th argument,
// counting from 1. Postgres numbers its parameters, the other engines use
// positional question marks.
func (d dialect) placeholder(n int) string {
	if d.name == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// quoteIdent quotes an identifier for generated SQL. Names are validated
// against identPattern before reaching this point, quoting only guards
// against reserved words.
func (d dialect) quoteIdent(name string) string {
	if d.name == "mysql" {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}
