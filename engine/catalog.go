package engine

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/thisisjab/usersearch/entity"
	"github.com/thisisjab/usersearch/querier"
)

type catalogEntry struct {
	source string
	table  entity.Table
	types  map[string]querier.DeclaredType
}

// Catalog holds the searchable tables of every schema source. Readers always
// see a complete table set: a source's tables are swapped under one lock.
type Catalog struct {
	logger *slog.Logger
	mu     sync.RWMutex
	tables map[string]catalogEntry
}

func NewCatalog(logger *slog.Logger) *Catalog {
	return &Catalog{
		logger: logger,
		tables: make(map[string]catalogEntry),
	}
}

// Replace drops every table previously provided by source and adds tables.
// A table whose column types cannot be resolved is skipped and logged.
func (c *Catalog) Replace(source string, tables []entity.Table) {
	entries := make([]catalogEntry, 0, len(tables))
	for _, t := range tables {
		types := make(map[string]querier.DeclaredType, len(t.Columns))
		ok := true
		for _, col := range t.Columns {
			dt, err := querier.ParseDeclaredType(col.Type)
			if err != nil {
				c.logger.Error("skipping table with invalid column.", "source", source, "table", t.Name, "column", col.Name, "error", err)
				ok = false
				break
			}
			types[col.Name] = dt
		}
		if ok {
			entries = append(entries, catalogEntry{source: source, table: t, types: types})
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for name, e := range c.tables {
		if e.source == source {
			delete(c.tables, name)
		}
	}

	for _, e := range entries {
		if prev, exists := c.tables[e.table.Name]; exists {
			c.logger.Warn("table is provided by more than one source, last one wins.", "table", e.table.Name, "previous", prev.source, "source", source)
		}
		c.tables[e.table.Name] = e
	}
}

// Table returns the table called name and its declared column types.
func (c *Catalog) Table(name string) (entity.Table, map[string]querier.DeclaredType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.tables[name]
	if !ok {
		return entity.Table{}, nil, false
	}
	return e.table, e.types, true
}

// Tables returns all tables sorted by name.
func (c *Catalog) Tables() []entity.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]entity.Table, 0, len(c.tables))
	for _, e := range c.tables {
		out = append(out, e.table)
	}
	slices.SortFunc(out, func(a, b entity.Table) int { return strings.Compare(a.Name, b.Name) })
	return out
}
