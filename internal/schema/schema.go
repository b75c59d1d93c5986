// Package schema loads table definitions from YAML files.
package schema

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/dalite/internal/dal"
)

// TableDef is one table in a schema file.
type TableDef struct {
	Name   string      `yaml:"name"`
	Fields []dal.Field `yaml:"fields"`
}

// File is the top-level shape of a schema file:
//
//	tables:
//	  - name: people
//	    fields:
//	      - name: id
//	        type: INTEGER
//	        options: PRIMARY KEY
//	      - name: name
//	        type: TEXT
type File struct {
	Tables []TableDef `yaml:"tables"`
}

// Load reads table definitions from a YAML schema file. All validation
// problems are reported together rather than one at a time.
func Load(path string) ([]TableDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}
	if len(f.Tables) == 0 {
		return nil, fmt.Errorf("schema file %s defines no tables", path)
	}

	if err := validate(f.Tables); err != nil {
		return nil, err
	}
	return f.Tables, nil
}

func validate(tables []TableDef) error {
	errs := new(multierror.Error)
	for i, table := range tables {
		label := table.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			errs = multierror.Append(errs, fmt.Errorf("table %s: missing name", label))
		}
		if len(table.Fields) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("table %s: no fields", label))
		}
		for j, field := range table.Fields {
			if field.Name == "" {
				errs = multierror.Append(errs, fmt.Errorf("table %s: field #%d missing name", label, j+1))
			}
			if field.Type == "" {
				errs = multierror.Append(errs, fmt.Errorf("table %s: field %q missing type", label, field.Name))
			}
		}
	}
	return errs.ErrorOrNil()
}
