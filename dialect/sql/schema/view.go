package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/weliteorg/welite/dialect"
)

// minVersionForViewColumnAliases is the lowest SQLite version whose
// CREATE VIEW grammar accepts an explicit column-alias list; older
// engines reject the syntax, so View.CreateSQL omits it below this
// version (spec.md §4.7, "emitted only when the host SQLite supports
// it").
const minVersionForViewColumnAliases = "3.9.0"

// View is a declared CREATE VIEW statement over a SELECT.
type View struct {
	Name         string
	ColumnAlias  []string
	SelectSQL    string
}

// NewView declares a view named name backed by selectSQL, optionally
// aliasing its result columns.
func NewView(name, selectSQL string, columnAlias ...string) *View {
	return &View{Name: name, SelectSQL: selectSQL, ColumnAlias: columnAlias}
}

// CreateSQL renders CREATE VIEW IF NOT EXISTS. engineVersion is the
// connected SQLite's version string (from PRAGMA or sqlite3_libversion),
// used to decide whether the column-alias list may be emitted.
func (v *View) CreateSQL(engineVersion string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE VIEW IF NOT EXISTS %s ", quoteIdent(v.Name))
	if len(v.ColumnAlias) > 0 && versionAtLeast(engineVersion, minVersionForViewColumnAliases) {
		quoted := make([]string, len(v.ColumnAlias))
		for i, c := range v.ColumnAlias {
			quoted[i] = quoteIdent(c)
		}
		fmt.Fprintf(&sb, "(%s) ", strings.Join(quoted, ", "))
	}
	sb.WriteString("AS ")
	sb.WriteString(v.SelectSQL)
	return sb.String()
}

// Exists reports whether v has a matching row in sqlite_master.
func (v *View) Exists(ctx context.Context, q dialect.ExecQuerier) (bool, error) {
	return objectExists(ctx, q, "view", v.Name)
}

// versionAtLeast compares two dotted version strings component-wise.
func versionAtLeast(version, min string) bool {
	vs, ms := strings.Split(version, "."), strings.Split(min, ".")
	for i := 0; i < len(ms); i++ {
		var v, m int
		if i < len(vs) {
			fmt.Sscanf(vs[i], "%d", &v)
		}
		fmt.Sscanf(ms[i], "%d", &m)
		if v != m {
			return v > m
		}
	}
	return true
}
