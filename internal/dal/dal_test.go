package dal

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func setupTestDB(t *testing.T) (*DB, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db, dbPath
}

func setupPeopleTable(t *testing.T, db *DB) {
	t.Helper()

	fields := []Field{
		{Name: "id", Type: "INTEGER", Options: "PRIMARY KEY"},
		{Name: "name", Type: "TEXT"},
		{Name: "age", Type: "INTEGER"},
	}
	if err := db.CreateTable("people", fields); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
}

func seedPeople(t *testing.T, db *DB) {
	t.Helper()

	records := []map[string]any{
		{"id": 1, "name": "Frank", "age": 30},
		{"id": 2, "name": "Grace", "age": 45},
		{"id": 3, "name": "Frida", "age": 45},
	}
	count, err := db.InsertRecords("people", records)
	if err != nil {
		t.Fatalf("Failed to seed table: %v", err)
	}
	if count != 3 {
		t.Fatalf("Expected 3 seeded rows, got %d", count)
	}
}

func TestOpenEmptyDatabase(t *testing.T) {
	db, _ := setupTestDB(t)

	if tables := db.Tables(); len(tables) != 0 {
		t.Errorf("Expected no tables in fresh database, got %v", tables)
	}
}

func TestOpenEmptyConnectionString(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("Expected error for empty connection string")
	}
}

func TestCreateTable(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	tables := db.Tables()
	if len(tables) != 1 || tables[0] != "people" {
		t.Errorf("Expected tables [people], got %v", tables)
	}

	cols, err := db.Columns("people")
	if err != nil {
		t.Fatalf("Failed to read columns: %v", err)
	}
	want := []string{"id", "name", "age"}
	if len(cols) != len(want) {
		t.Fatalf("Expected columns %v, got %v", want, cols)
	}
	for i, col := range want {
		if cols[i] != col {
			t.Errorf("Expected column %d to be %q, got %q", i, col, cols[i])
		}
	}
}

func TestCreateTableDuplicate(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	err := db.CreateTable("people", []Field{{Name: "id", Type: "INTEGER"}})
	if !errors.Is(err, ErrTableExists) {
		t.Errorf("Expected ErrTableExists, got %v", err)
	}
}

func TestCreateTableBadIdentifiers(t *testing.T) {
	db, _ := setupTestDB(t)

	err := db.CreateTable(`people"; DROP TABLE x; --`, []Field{{Name: "id", Type: "INTEGER"}})
	if !errors.Is(err, ErrBadIdentifier) {
		t.Errorf("Expected ErrBadIdentifier for table name, got %v", err)
	}

	err = db.CreateTable("people", []Field{{Name: "id, extra", Type: "INTEGER"}})
	if !errors.Is(err, ErrBadIdentifier) {
		t.Errorf("Expected ErrBadIdentifier for column name, got %v", err)
	}
}

func TestDropTable(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	if err := db.DropTable("people"); err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}
	if tables := db.Tables(); len(tables) != 0 {
		t.Errorf("Expected no tables after drop, got %v", tables)
	}

	// Schema cache is refreshed, so later operations fail cleanly
	if _, err := db.Insert("people", 1, "Frank", 30); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("Expected ErrUnknownTable after drop, got %v", err)
	}
}

func TestDropTableUnknown(t *testing.T) {
	db, _ := setupTestDB(t)

	if err := db.DropTable("missing"); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("Expected ErrUnknownTable, got %v", err)
	}
}

func TestInsertAndGet(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	count, err := db.Insert("people", 1, "Frank", 30)
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 affected row, got %d", count)
	}

	row, err := db.Get("people", 1)
	if err != nil {
		t.Fatalf("Failed to get row: %v", err)
	}
	if row == nil {
		t.Fatal("Expected a row, got nil")
	}
	if row["name"] != "Frank" {
		t.Errorf("Expected name Frank, got %v", row["name"])
	}
	if row["age"] != int64(30) {
		t.Errorf("Expected age 30, got %v", row["age"])
	}
}

func TestInsertColumnCountMismatch(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	if _, err := db.Insert("people", 1, "Frank"); err == nil {
		t.Error("Expected engine error for wrong value count")
	}
}

func TestInsertUnknownTable(t *testing.T) {
	db, _ := setupTestDB(t)

	if _, err := db.Insert("missing", 1); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("Expected ErrUnknownTable, got %v", err)
	}
}

func TestInsertRecord(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	count, err := db.InsertRecord("people", map[string]any{"id": 1, "name": "Frank", "age": 30})
	if err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 affected row, got %d", count)
	}

	// Partial records leave unnamed columns NULL
	if _, err := db.InsertRecord("people", map[string]any{"id": 2, "name": "Grace"}); err != nil {
		t.Fatalf("Failed to insert partial record: %v", err)
	}
	row, err := db.Get("people", 2)
	if err != nil {
		t.Fatalf("Failed to get row: %v", err)
	}
	if row["age"] != nil {
		t.Errorf("Expected NULL age, got %v", row["age"])
	}
}

func TestInsertRecordUnknownColumns(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	_, err := db.InsertRecord("people", map[string]any{"id": 1, "wrong": "x", "bogus": "y"})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("Expected ErrUnknownColumn, got %v", err)
	}
	// Both offending columns are reported in one error
	if !strings.Contains(err.Error(), "wrong") || !strings.Contains(err.Error(), "bogus") {
		t.Errorf("Expected both bad columns in error, got %v", err)
	}
}

func TestInsertRecordEmpty(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	if _, err := db.InsertRecord("people", map[string]any{}); !errors.Is(err, ErrEmptyRecord) {
		t.Errorf("Expected ErrEmptyRecord, got %v", err)
	}
}

func TestInsertRecords(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	records := []map[string]any{
		{"id": 1, "name": "Frank", "age": 30},
		{"id": 2, "name": "Grace", "age": 45},
		{"id": 3, "name": "Frida"},
	}
	count, err := db.InsertRecords("people", records)
	if err != nil {
		t.Fatalf("Failed to insert records: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 inserted rows, got %d", count)
	}

	// Record missing the age column inserted NULL for it
	row, err := db.Get("people", 3)
	if err != nil {
		t.Fatalf("Failed to get row: %v", err)
	}
	if row["age"] != nil {
		t.Errorf("Expected NULL age for partial record, got %v", row["age"])
	}
}

func TestInsertRecordsEmptyInput(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	count, err := db.InsertRecords("people", nil)
	if err != nil {
		t.Fatalf("Expected no error for empty input, got %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 inserted rows, got %d", count)
	}
}

func TestGetMissing(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	row, err := db.Get("people", 99)
	if err != nil {
		t.Fatalf("Expected no error for missing row, got %v", err)
	}
	if row != nil {
		t.Errorf("Expected nil row for missing id, got %v", row)
	}
}

func TestGetProjection(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)
	seedPeople(t, db)

	row, err := db.Get("people", 1, "name")
	if err != nil {
		t.Fatalf("Failed to get row: %v", err)
	}
	if len(row) != 1 {
		t.Errorf("Expected single column in row, got %v", row)
	}
	if row["name"] != "Frank" {
		t.Errorf("Expected name Frank, got %v", row["name"])
	}
}

func TestSearch(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)
	seedPeople(t, db)

	// Single criterion
	rows, err := db.Search("people", []Criterion{Gt("age", 40)})
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 rows for age > 40, got %d", len(rows))
	}

	// Criteria are joined with AND
	rows, err = db.Search("people", []Criterion{Gt("age", 40), Like("name", "F%")})
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Frida" {
		t.Errorf("Expected only Frida, got %v", rows)
	}

	// No criteria returns every row
	rows, err = db.Search("people", nil)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("Expected 3 rows for empty criteria, got %d", len(rows))
	}
}

func TestSearchNoMatches(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)
	seedPeople(t, db)

	rows, err := db.Search("people", []Criterion{Eq("name", "Nobody")})
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if rows == nil {
		t.Error("Expected empty slice, got nil")
	}
	if len(rows) != 0 {
		t.Errorf("Expected no rows, got %v", rows)
	}
}

func TestSearchProjection(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)
	seedPeople(t, db)

	rows, err := db.Search("people", []Criterion{Eq("id", 1)}, "name", "age")
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if len(rows[0]) != 2 {
		t.Errorf("Expected 2 columns in row, got %v", rows[0])
	}

	if _, err := db.Search("people", nil, "nope"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Expected ErrUnknownColumn for bad projection, got %v", err)
	}
}

func TestSearchUnknownCriterionColumn(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	_, err := db.Search("people", []Criterion{Eq("nope", 1)})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Expected ErrUnknownColumn, got %v", err)
	}
}

func TestSearchBadOperator(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	_, err := db.Search("people", []Criterion{Where("name", "= '' OR 1=1 --", "x")})
	if !errors.Is(err, ErrBadOperator) {
		t.Errorf("Expected ErrBadOperator, got %v", err)
	}
}

func TestSearchNullCriteria(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)

	if _, err := db.InsertRecord("people", map[string]any{"id": 1, "name": "Frank"}); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if _, err := db.InsertRecord("people", map[string]any{"id": 2, "name": "Grace", "age": 45}); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	rows, err := db.Search("people", []Criterion{IsNull("age")})
	if err != nil {
		t.Fatalf("Failed to search for NULL: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Frank" {
		t.Errorf("Expected only Frank for IS NULL, got %v", rows)
	}

	rows, err = db.Search("people", []Criterion{NotNull("age")})
	if err != nil {
		t.Fatalf("Failed to search for NOT NULL: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Grace" {
		t.Errorf("Expected only Grace for IS NOT NULL, got %v", rows)
	}

	// IS with a non-nil value makes no sense and is rejected
	if _, err := db.Search("people", []Criterion{Where("age", "IS", 45)}); !errors.Is(err, ErrBadOperator) {
		t.Errorf("Expected ErrBadOperator for IS with value, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)
	seedPeople(t, db)

	count, err := db.Update("people", map[string]any{"age": 46}, []Criterion{Eq("age", 45)})
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 updated rows, got %d", count)
	}

	rows, err := db.Search("people", []Criterion{Eq("age", 46)})
	if err != nil {
		t.Fatalf("Failed to verify update: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 rows with new age, got %d", len(rows))
	}
}

func TestUpdateRequiresCriteria(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)
	seedPeople(t, db)

	if _, err := db.Update("people", map[string]any{"age": 0}, nil); !errors.Is(err, ErrNoCriteria) {
		t.Errorf("Expected ErrNoCriteria, got %v", err)
	}

	// Nothing was touched
	rows, err := db.Search("people", []Criterion{Eq("age", 0)})
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no rows with zero age, got %v", rows)
	}
}

func TestUpdateBadInput(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)
	seedPeople(t, db)

	if _, err := db.Update("people", nil, []Criterion{Eq("id", 1)}); !errors.Is(err, ErrEmptyRecord) {
		t.Errorf("Expected ErrEmptyRecord for empty set, got %v", err)
	}
	if _, err := db.Update("people", map[string]any{"nope": 1}, []Criterion{Eq("id", 1)}); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Expected ErrUnknownColumn for bad set column, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)
	seedPeople(t, db)

	count, err := db.Delete("people", []Criterion{Eq("age", 45)})
	if err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 deleted rows, got %d", count)
	}

	rows, err := db.Search("people", nil)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Frank" {
		t.Errorf("Expected only Frank to remain, got %v", rows)
	}
}

func TestDeleteRequiresCriteria(t *testing.T) {
	db, _ := setupTestDB(t)
	setupPeopleTable(t, db)
	seedPeople(t, db)

	if _, err := db.Delete("people", nil); !errors.Is(err, ErrNoCriteria) {
		t.Errorf("Expected ErrNoCriteria, got %v", err)
	}

	rows, err := db.Search("people", nil)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("Expected all rows to survive, got %d", len(rows))
	}
}

func TestColumnsUnknownTable(t *testing.T) {
	db, _ := setupTestDB(t)

	if _, err := db.Columns("missing"); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("Expected ErrUnknownTable, got %v", err)
	}
}

func TestRefreshSeesExternalChanges(t *testing.T) {
	db, dbPath := setupTestDB(t)

	// Simulate another process creating a table
	raw, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open raw connection: %v", err)
	}
	if _, err := raw.Exec("CREATE TABLE extra (id INTEGER PRIMARY KEY, note TEXT)"); err != nil {
		t.Fatalf("Failed to create table externally: %v", err)
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("Failed to close raw connection: %v", err)
	}

	if err := db.Refresh(); err != nil {
		t.Fatalf("Failed to refresh schema: %v", err)
	}

	cols, err := db.Columns("extra")
	if err != nil {
		t.Fatalf("Expected extra table after refresh: %v", err)
	}
	if len(cols) != 2 {
		t.Errorf("Expected 2 columns, got %v", cols)
	}
}
