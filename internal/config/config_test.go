package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestInitConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	InitConfig()

	assert.Equal(t, "./dalite.db", Database)
	assert.Equal(t, "./json/", JSONOutputDir)
	assert.False(t, OverwriteFiles)
}

func TestInitConfigReadsViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("database", "postgres://localhost/app")
	viper.Set("overwritefiles", true)

	InitConfig()

	assert.Equal(t, "postgres://localhost/app", Database)
	assert.True(t, OverwriteFiles)
}

func TestSetters(t *testing.T) {
	origDatabase := Database
	origOverwrite := OverwriteFiles
	t.Cleanup(func() {
		Database = origDatabase
		OverwriteFiles = origOverwrite
	})

	origJSONDir := JSONOutputDir
	t.Cleanup(func() { JSONOutputDir = origJSONDir })

	SetDatabase("./other.db")
	assert.Equal(t, "./other.db", Database)

	SetJSONOutputDir("./exports/")
	assert.Equal(t, "./exports/", JSONOutputDir)

	SetOverwriteFiles(true)
	assert.True(t, OverwriteFiles)

	SetOverwriteFiles(false)
	assert.False(t, OverwriteFiles)
}
