package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// Database is the connection string or file path of the database to operate on
	Database string
	// JSONOutputDir is the default directory for exported JSON files
	JSONOutputDir string
	// OverwriteFiles controls whether existing export files should be overwritten
	OverwriteFiles bool
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("database", "./dalite.db")
	viper.SetDefault("jsonoutputdir", "./json/")
	viper.SetDefault("overwritefiles", false)

	// Get values from viper
	Database = viper.GetString("database")
	JSONOutputDir = viper.GetString("jsonoutputdir")
	OverwriteFiles = viper.GetBool("overwritefiles")
}

// SetDatabase sets the active database connection string
func SetDatabase(conn string) {
	Database = conn
}

// SetJSONOutputDir sets the directory for exported JSON files
func SetJSONOutputDir(dir string) {
	JSONOutputDir = dir
}

// SetOverwriteFiles sets the OverwriteFiles flag
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}
