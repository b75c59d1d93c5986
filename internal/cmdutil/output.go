package cmdutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ResolveJSONOutput picks the path for a JSON export. An explicit path wins,
// otherwise the file goes into the configured JSON output directory as
// name.json. The parent directory is created either way.
func ResolveJSONOutput(explicit, name string) (string, error) {
	path := explicit
	if path == "" {
		baseDir := viper.GetString("jsonoutputdir")
		if baseDir == "" {
			baseDir = "json"
		}
		path = filepath.Clean(filepath.Join(baseDir, name+".json"))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create JSON output directory: %w", err)
	}
	return path, nil
}
