package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lepinkainen/dalite/internal/cmdutil"
	"github.com/lepinkainen/dalite/internal/config"
	"github.com/lepinkainen/dalite/internal/dal"
	"github.com/lepinkainen/dalite/internal/fileutil"
)

// columnOrder returns the columns to print: the user's projection when one
// was given, the table's schema order otherwise.
func columnOrder(db *dal.DB, table string, fields []string) ([]string, error) {
	if len(fields) > 0 {
		return fields, nil
	}
	return db.Columns(table)
}

// renderRows prints rows as an aligned text table with a header line.
func renderRows(w io.Writer, columns []string, rows []dal.Row) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = strings.ToUpper(col)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = renderValue(row[col])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

func renderValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

// exportJSON writes data to a JSON file, resolving the output path from the
// explicit flag or the configured output directory.
func exportJSON(data any, explicit, name string) error {
	path, err := cmdutil.ResolveJSONOutput(explicit, sanitizeFilename(name))
	if err != nil {
		return err
	}
	_, err = fileutil.WriteJSONFile(data, path, config.OverwriteFiles)
	return err
}
