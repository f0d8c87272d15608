package schema

import (
	"fmt"
	"strings"
)

// Index is a declared CREATE INDEX statement over one or more columns of
// a table (spec.md §4.7).
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// NewIndex declares an index over cols. If name is empty, the default
// "<table>_<col1>_<col2>[_unique]" naming rule applies when CreateSQL
// renders it (spec.md §4.7, "Index name").
func NewIndex(name string, unique bool, cols ...string) *Index {
	return &Index{Name: name, Columns: cols, Unique: unique}
}

func (idx *Index) resolvedName(table string) string {
	if idx.Name != "" {
		return idx.Name
	}
	name := table + "_" + strings.Join(idx.Columns, "_")
	if idx.Unique {
		name += "_unique"
	}
	return name
}

// CreateSQL renders CREATE [UNIQUE] INDEX IF NOT EXISTS against table.
func (idx *Index) CreateSQL(table string) string {
	quoted := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		quoted[i] = quoteIdent(c)
	}
	kw := "INDEX"
	if idx.Unique {
		kw = "UNIQUE INDEX"
	}
	return fmt.Sprintf("CREATE %s IF NOT EXISTS %s ON %s(%s)",
		kw, quoteIdent(idx.resolvedName(table)), quoteIdent(table), strings.Join(quoted, ", "))
}
