package entity

import (
	"regexp"
	"strings"
)

// Column describes one searchable column of a table.
type Column struct {
	Name string `yaml:"name" json:"name"`

	// Type is the column cast: string, integer, real, float, double, boolean,
	// date, datetime or timestamp. An empty type is a string.
	Type string `yaml:"type" json:"type"`

	// Select marks the column as part of the default result set.
	Select bool `yaml:"select" json:"select"`

	// Settings is the compact form "type:x|select|pk|vis|expr:y". When set it
	// overrides Type and Select. pk, vis and expr are accepted and ignored.
	Settings string `yaml:"settings,omitempty" json:"-"`
}

var settingsTypeRe = regexp.MustCompile(`type:([^|]*)\|`)

// ApplySettings fills Type and Select from Settings.
func (c *Column) ApplySettings() {
	if c.Settings == "" {
		return
	}

	s := strings.Trim(c.Settings, "|") + "|"

	if m := settingsTypeRe.FindStringSubmatch(s); m != nil {
		c.Type = m[1]
	}
	c.Select = strings.Contains("|"+s, "|select|")
}

// Table is a searchable table and its columns.
type Table struct {
	Name    string   `yaml:"name" json:"name"`
	Columns []Column `yaml:"columns" json:"columns"`
}

func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// SelectColumns returns the names of the columns marked with Select, in
// declaration order.
func (t Table) SelectColumns() []string {
	var cols []string
	for _, c := range t.Columns {
		if c.Select {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// Row is one result row keyed by column name.
type Row map[string]any
