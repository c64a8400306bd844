package source

import (
	"errors"
	"fmt"

	"github.com/thisisjab/usersearch/entity"
	"github.com/thisisjab/usersearch/fault"
	"github.com/thisisjab/usersearch/querier"
	"gopkg.in/yaml.v3"
)

// schemaFile is the on-disk layout of a schema definition.
type schemaFile struct {
	Tables []entity.Table `yaml:"tables"`
}

// ParseSchema decodes a YAML schema and checks every table and column. Column
// settings strings are expanded and every column type must map to a
// searchable declared type.
func ParseSchema(data []byte) ([]entity.Table, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("cannot decode schema: %w", err)
	}

	if len(f.Tables) == 0 {
		return nil, errors.New("schema defines no tables")
	}

	problems := fault.FieldErrorsMetadata{}
	seenTables := make(map[string]bool, len(f.Tables))

	for ti := range f.Tables {
		t := &f.Tables[ti]

		if !querier.ColumnNameRe.MatchString(t.Name) {
			problems[t.Name] = append(problems[t.Name], "Invalid table name.")
		}
		if seenTables[t.Name] {
			problems[t.Name] = append(problems[t.Name], "Table is defined more than once.")
		}
		seenTables[t.Name] = true

		seenColumns := make(map[string]bool, len(t.Columns))
		for ci := range t.Columns {
			c := &t.Columns[ci]
			c.ApplySettings()

			key := t.Name + "." + c.Name
			if !querier.ColumnNameRe.MatchString(c.Name) {
				problems[key] = append(problems[key], "Invalid column name.")
			}
			if seenColumns[c.Name] {
				problems[key] = append(problems[key], "Column is defined more than once.")
			}
			seenColumns[c.Name] = true

			if _, err := querier.ParseDeclaredType(c.Type); err != nil {
				problems[key] = append(problems[key], err.Error())
			}
		}
	}

	if len(problems) > 0 {
		return nil, fault.New(fault.ConfigurationCode, "schema is invalid").WithMetadata(problems)
	}

	return f.Tables, nil
}

// DeclaredTypes maps every column of t to its declared type.
func DeclaredTypes(t entity.Table) (map[string]querier.DeclaredType, error) {
	types := make(map[string]querier.DeclaredType, len(t.Columns))
	for _, c := range t.Columns {
		dt, err := querier.ParseDeclaredType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s.%s: %w", t.Name, c.Name, err)
		}
		types[c.Name] = dt
	}
	return types, nil
}
