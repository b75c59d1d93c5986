package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lepinkainen/dalite/internal/testutil"
)

func TestFileExists(t *testing.T) {
	env := testutil.NewTestEnv(t)

	if FileExists(env.Path("missing.txt")) {
		t.Error("Expected false for missing file")
	}

	env.WriteFileString("present.txt", "content")
	if !FileExists(env.Path("present.txt")) {
		t.Error("Expected true for existing file")
	}

	// Directories are not files
	if FileExists(env.RootDir()) {
		t.Error("Expected false for directory")
	}
}

func TestWriteFileWithOverwrite(t *testing.T) {
	env := testutil.NewTestEnv(t)
	filePath := env.Path("out", "data.txt")

	written, err := WriteFileWithOverwrite(filePath, []byte("first"), 0644, false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !written {
		t.Error("Expected new file to be written")
	}

	// Existing file is skipped without overwrite
	written, err = WriteFileWithOverwrite(filePath, []byte("second"), 0644, false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if written {
		t.Error("Expected existing file to be skipped")
	}
	if got := env.ReadFileString(filepath.Join("out", "data.txt")); got != "first" {
		t.Errorf("Expected original content, got %q", got)
	}

	// Overwrite replaces the content
	written, err = WriteFileWithOverwrite(filePath, []byte("second"), 0644, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !written {
		t.Error("Expected file to be overwritten")
	}
	if got := env.ReadFileString(filepath.Join("out", "data.txt")); got != "second" {
		t.Errorf("Expected new content, got %q", got)
	}
}

func TestWriteJSONFile_NewFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	filePath := env.Path("rows.json")

	rows := []map[string]any{
		{"id": 1, "name": "Frank"},
		{"id": 2, "name": "Grace"},
	}

	written, err := WriteJSONFile(rows, filePath, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !written {
		t.Error("Expected file to be written")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	var result []map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(result))
	}
	if result[0]["name"] != "Frank" {
		t.Errorf("Expected first row name Frank, got %v", result[0]["name"])
	}
}

func TestWriteJSONFile_OverwriteFalse(t *testing.T) {
	env := testutil.NewTestEnv(t)
	filePath := env.Path("rows.json")

	if _, err := WriteJSONFile(map[string]any{"id": 99}, filePath, true); err != nil {
		t.Fatalf("Failed to write initial file: %v", err)
	}

	written, err := WriteJSONFile(map[string]any{"id": 1}, filePath, false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if written {
		t.Error("Expected file not to be written")
	}

	data, _ := os.ReadFile(filePath)
	var result map[string]any
	_ = json.Unmarshal(data, &result)
	if result["id"] != float64(99) {
		t.Errorf("Expected file to remain unchanged, got %+v", result)
	}
}

func TestWriteJSONFile_CreateDirectory(t *testing.T) {
	env := testutil.NewTestEnv(t)
	filePath := env.Path("nested", "deep", "rows.json")

	written, err := WriteJSONFile([]map[string]any{{"id": 1}}, filePath, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !written {
		t.Error("Expected file to be written")
	}
	if !FileExists(filePath) {
		t.Error("Expected file to exist")
	}
}

func TestWriteJSONFile_InvalidData(t *testing.T) {
	env := testutil.NewTestEnv(t)
	filePath := env.Path("bad.json")

	// Channels can't be marshaled
	written, err := WriteJSONFile(make(chan int), filePath, true)
	if err == nil {
		t.Fatal("Expected error for unmarshalable data")
	}
	if written {
		t.Error("Expected file not to be written")
	}
	if FileExists(filePath) {
		t.Error("Expected file not to exist")
	}
}
