package cmd

import "strings"

// sanitizeFilename replaces characters that don't belong in a file name with
// underscores. Export names embed user-supplied id values, which may contain
// path separators.
func sanitizeFilename(filename string) string {

	filename = strings.ReplaceAll(filename, ":", "")
	filename = strings.ReplaceAll(filename, "/", "_")

	return strings.ReplaceAll(filename, "\\", "_")
}
