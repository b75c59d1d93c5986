package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/dalite/internal/cmdutil"
	"github.com/lepinkainen/dalite/internal/config"
	"github.com/lepinkainen/dalite/internal/csvutil"
	"github.com/lepinkainen/dalite/internal/dal"
	"github.com/lepinkainen/dalite/internal/schema"
	"github.com/lepinkainen/dalite/internal/tui"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"
)

var (
	openDB                = func() (*dal.DB, error) { return dal.Open(config.Database) }
	selectTable           = tui.SelectTable
	stdout      io.Writer = os.Stdout
)

// CLI represents the complete command structure for the dalite application
type CLI struct {
	// Global flags
	Database      string `short:"d" help:"Connection string or path of the database to operate on"`
	JSONOutputDir string `name:"json-output-dir" help:"Directory for exported JSON files"`
	Overwrite     bool   `help:"Overwrite existing JSON files when exporting"`

	Tables      TablesCmd      `cmd:"" help:"List tables and their columns"`
	CreateTable CreateTableCmd `cmd:"" name:"create-table" help:"Create a table from column specs or a schema file"`
	DropTable   DropTableCmd   `cmd:"" name:"drop-table" help:"Drop a table"`
	Insert      InsertCmd      `cmd:"" help:"Insert rows into a table"`
	Get         GetCmd         `cmd:"" help:"Fetch a single row by id"`
	Search      SearchCmd      `cmd:"" help:"Search rows matching conditions"`
	Update      UpdateCmd      `cmd:"" help:"Update rows matching conditions"`
	Delete      DeleteCmd      `cmd:"" help:"Delete rows matching conditions"`
	Browse      BrowseCmd      `cmd:"" help:"Pick a table interactively and show its rows"`
}

// TablesCmd represents the tables command
type TablesCmd struct{}

// CreateTableCmd represents the create-table command
type CreateTableCmd struct {
	Table  string   `arg:"" optional:"" help:"Name of the table to create"`
	Field  []string `short:"f" sep:"none" help:"Column spec as NAME:TYPE[:OPTIONS], repeat for each column"`
	Schema string   `help:"Path to a YAML schema file describing one or more tables"`
}

// DropTableCmd represents the drop-table command
type DropTableCmd struct {
	Table string `arg:"" help:"Name of the table to drop"`
}

// InsertCmd represents the insert command
type InsertCmd struct {
	Table       string   `arg:"" help:"Table to insert into"`
	Values      []string `help:"Full row of values in schema column order, comma separated"`
	Set         []string `short:"s" sep:"none" help:"column=value pair, repeat for each column"`
	CSV         string   `help:"Path to a CSV file whose header names the columns"`
	Typed       bool     `help:"Convert numeric-looking CSV values to numbers" default:"true"`
	SkipInvalid bool     `help:"Skip malformed CSV rows instead of failing" default:"false"`
}

// GetCmd represents the get command
type GetCmd struct {
	Table      string   `arg:"" help:"Table to fetch from"`
	ID         string   `arg:"" help:"Primary key value of the row"`
	Fields     []string `short:"f" help:"Columns to return (defaults to all)"`
	JSON       bool     `help:"Write the row to JSON instead of printing it"`
	JSONOutput string   `help:"Path to JSON output file (defaults to json/<table>_<id>.json)"`
}

// SearchCmd represents the search command
type SearchCmd struct {
	Table      string   `arg:"" help:"Table to search"`
	Where      []string `short:"w" sep:"none" help:"Condition as 'COLUMN OP VALUE', repeat to combine with AND"`
	Fields     []string `short:"f" help:"Columns to return (defaults to all)"`
	JSON       bool     `help:"Write the result to JSON instead of printing it"`
	JSONOutput string   `help:"Path to JSON output file (defaults to json/<table>.json)"`
}

// UpdateCmd represents the update command
type UpdateCmd struct {
	Table string   `arg:"" help:"Table to update"`
	Set   []string `short:"s" sep:"none" help:"column=value assignment, repeat for each column"`
	Where []string `short:"w" sep:"none" help:"Condition as 'COLUMN OP VALUE', repeat to combine with AND"`
}

// DeleteCmd represents the delete command
type DeleteCmd struct {
	Table string   `arg:"" help:"Table to delete from"`
	Where []string `short:"w" sep:"none" help:"Condition as 'COLUMN OP VALUE', repeat to combine with AND"`
}

// BrowseCmd represents the browse command
type BrowseCmd struct {
	Limit int `help:"Maximum number of rows to show" default:"20"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	// Create CLI instance
	var cli CLI

	// Parse command line with Kong
	ctx := kong.Parse(&cli,
		kong.Name("dalite"),
		kong.Description("A convenience layer for poking at relational databases from the command line."),
		kong.UsageOnError(),
	)

	// Update global config based on parsed flags
	updateGlobalConfig(&cli)

	// Execute the selected command
	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("database", "./dalite.db")
	viper.SetDefault("jsonoutputdir", "./json/")
	viper.SetDefault("overwritefiles", false)

	// Enable environment variable support
	viper.AutomaticEnv()
	// Bind specific environment variables to config keys
	if err := viper.BindEnv("database", "DALITE_DATABASE"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Debug("No config file found, using defaults")
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	// Update config based on CLI flags
	if cli.Database != "" {
		config.SetDatabase(cli.Database)
	}
	if cli.JSONOutputDir != "" {
		config.SetJSONOutputDir(cli.JSONOutputDir)
		viper.Set("jsonoutputdir", cli.JSONOutputDir)
	}
	if cli.Overwrite {
		config.SetOverwriteFiles(true)
	}
}

// Run methods for each command

func (c *TablesCmd) Run() error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tables := db.Tables()
	if len(tables) == 0 {
		slog.Info("Database has no tables", "database", config.Database)
		return nil
	}

	rows := make([]dal.Row, 0, len(tables))
	for _, name := range tables {
		cols, err := db.Columns(name)
		if err != nil {
			return err
		}
		rows = append(rows, dal.Row{"table": name, "columns": strings.Join(cols, ", ")})
	}
	renderRows(stdout, []string{"table", "columns"}, rows)
	return nil
}

func (c *CreateTableCmd) Run() error {
	if c.Schema != "" {
		if c.Table != "" || len(c.Field) > 0 {
			return fmt.Errorf("--schema cannot be combined with a table name or --field")
		}

		tables, err := schema.Load(c.Schema)
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		for _, table := range tables {
			if err := db.CreateTable(table.Name, table.Fields); err != nil {
				return err
			}
		}
		return nil
	}

	if c.Table == "" || len(c.Field) == 0 {
		return fmt.Errorf("a table name and at least one --field are required (or use --schema)")
	}

	fields := make([]dal.Field, 0, len(c.Field))
	for _, spec := range c.Field {
		field, err := cmdutil.ParseField(spec)
		if err != nil {
			return err
		}
		fields = append(fields, field)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return db.CreateTable(c.Table, fields)
}

func (c *DropTableCmd) Run() error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return db.DropTable(c.Table)
}

func (c *InsertCmd) Run() error {
	modes := 0
	if len(c.Values) > 0 {
		modes++
	}
	if len(c.Set) > 0 {
		modes++
	}
	if c.CSV != "" {
		modes++
	}
	if modes != 1 {
		return fmt.Errorf("exactly one of --values, --set or --csv is required")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var count int64
	switch {
	case len(c.Values) > 0:
		values := make([]any, len(c.Values))
		for i, v := range c.Values {
			values[i] = cmdutil.ParseValue(v)
		}
		if count, err = db.Insert(c.Table, values...); err != nil {
			return err
		}
	case len(c.Set) > 0:
		record := make(map[string]any, len(c.Set))
		for _, spec := range c.Set {
			column, value, err := cmdutil.ParseAssignment(spec)
			if err != nil {
				return err
			}
			record[column] = value
		}
		if count, err = db.InsertRecord(c.Table, record); err != nil {
			return err
		}
	default:
		records, err := csvutil.LoadRecords(c.CSV, csvutil.RecordOptions{
			TypedValues: c.Typed,
			SkipInvalid: c.SkipInvalid,
		})
		if err != nil {
			return err
		}
		if count, err = db.InsertRecords(c.Table, records); err != nil {
			return err
		}
	}

	slog.Info("Rows inserted", "table", c.Table, "count", count)
	return nil
}

func (c *GetCmd) Run() error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	id := cmdutil.ParseValue(c.ID)
	row, err := db.Get(c.Table, id, c.Fields...)
	if err != nil {
		return err
	}
	if row == nil {
		slog.Warn("No matching row", "table", c.Table, "id", c.ID)
		return nil
	}

	if c.JSON || c.JSONOutput != "" {
		return exportJSON(row, c.JSONOutput, fmt.Sprintf("%s_%v", c.Table, id))
	}

	columns, err := columnOrder(db, c.Table, c.Fields)
	if err != nil {
		return err
	}
	renderRows(stdout, columns, []dal.Row{row})
	return nil
}

func (c *SearchCmd) Run() error {
	criteria, err := parseConditions(c.Where)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.Search(c.Table, criteria, c.Fields...)
	if err != nil {
		return err
	}
	slog.Debug("Search finished", "table", c.Table, "rows", len(rows))

	if c.JSON || c.JSONOutput != "" {
		return exportJSON(rows, c.JSONOutput, c.Table)
	}

	columns, err := columnOrder(db, c.Table, c.Fields)
	if err != nil {
		return err
	}
	renderRows(stdout, columns, rows)
	return nil
}

func (c *UpdateCmd) Run() error {
	set := make(map[string]any, len(c.Set))
	for _, spec := range c.Set {
		column, value, err := cmdutil.ParseAssignment(spec)
		if err != nil {
			return err
		}
		set[column] = value
	}

	criteria, err := parseConditions(c.Where)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	count, err := db.Update(c.Table, set, criteria)
	if err != nil {
		return err
	}

	slog.Info("Rows updated", "table", c.Table, "count", count)
	return nil
}

func (c *DeleteCmd) Run() error {
	criteria, err := parseConditions(c.Where)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	count, err := db.Delete(c.Table, criteria)
	if err != nil {
		return err
	}

	slog.Info("Rows deleted", "table", c.Table, "count", count)
	return nil
}

func (c *BrowseCmd) Run() error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	names := db.Tables()
	items := make([]tui.TableItem, 0, len(names))
	for _, name := range names {
		cols, err := db.Columns(name)
		if err != nil {
			return err
		}
		items = append(items, tui.TableItem{Name: name, Columns: cols})
	}

	result, err := selectTable(items)
	if err != nil {
		return err
	}
	if result.Action != tui.ActionSelected {
		return nil
	}

	table := result.Selection.Name
	rows, err := db.Search(table, nil)
	if err != nil {
		return err
	}
	if c.Limit > 0 && len(rows) > c.Limit {
		slog.Info("Showing first rows only", "table", table, "shown", c.Limit, "total", len(rows))
		rows = rows[:c.Limit]
	}

	columns, err := db.Columns(table)
	if err != nil {
		return err
	}
	renderRows(stdout, columns, rows)
	return nil
}

// parseConditions turns raw --where expressions into criteria.
func parseConditions(exprs []string) ([]dal.Criterion, error) {
	criteria := make([]dal.Criterion, 0, len(exprs))
	for _, expr := range exprs {
		criterion, err := cmdutil.ParseCondition(expr)
		if err != nil {
			return nil, err
		}
		criteria = append(criteria, criterion)
	}
	return criteria, nil
}

func initLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("DALITE_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
