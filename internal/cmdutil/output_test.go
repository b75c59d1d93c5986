package cmdutil

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestResolveJSONOutputExplicitPath(t *testing.T) {
	t.Cleanup(viper.Reset)

	tempDir := t.TempDir()
	explicit := filepath.Join(tempDir, "exports", "rows.json")

	path, err := ResolveJSONOutput(explicit, "ignored")
	require.NoError(t, err)
	require.Equal(t, explicit, path)
	require.DirExists(t, filepath.Dir(path))
}

func TestResolveJSONOutputDefaultsToConfiguredDir(t *testing.T) {
	t.Cleanup(viper.Reset)

	tempDir := t.TempDir()
	viper.Set("jsonoutputdir", filepath.Join(tempDir, "json"))

	path, err := ResolveJSONOutput("", "people")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tempDir, "json", "people.json"), path)
	require.DirExists(t, filepath.Dir(path))
}
