package schema

import (
	"context"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/weliteorg/welite/dialect"
	"github.com/weliteorg/welite/welerr"
)

// Migration describes one declared schema version transition.
type Migration struct {
	FromVersion int
	ToVersion   int
	// Describe is an optional human-readable summary used in log output.
	Describe string
}

// FindMigrationPath finds the smallest sequence of declared migrations
// covering the gap between old and new, in version order (spec.md §4.7,
// "findMigrationPath"). Returns welerr.MigrationMissingError if required
// is true and no path exists.
func FindMigrationPath(migrations []Migration, old, new int, required bool) ([]Migration, error) {
	if old == new {
		return nil, nil
	}

	byFrom := make(map[int][]Migration, len(migrations))
	for _, m := range migrations {
		byFrom[m.FromVersion] = append(byFrom[m.FromVersion], m)
	}
	for from := range byFrom {
		sort.Slice(byFrom[from], func(i, j int) bool {
			return byFrom[from][i].ToVersion < byFrom[from][j].ToVersion
		})
	}

	// BFS over the version graph for the shortest hop count, preferring
	// the migration with the largest single hop at each step (greedy
	// shortest-path tie-break matching "smallest sequence").
	type node struct {
		version int
		path    []Migration
	}
	seen := map[int]bool{old: true}
	queue := []node{{version: old}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		candidates := byFrom[cur.version]
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].ToVersion > candidates[j].ToVersion })
		for _, m := range candidates {
			if m.ToVersion == new {
				return append(append([]Migration{}, cur.path...), m), nil
			}
			if seen[m.ToVersion] {
				continue
			}
			seen[m.ToVersion] = true
			queue = append(queue, node{version: m.ToVersion, path: append(append([]Migration{}, cur.path...), m)})
		}
	}
	if required {
		return nil, welerr.NewMigrationMissingError(old, new)
	}
	return nil, nil
}

// DropAllObjects drops every known sqlite_master object (table, index,
// view, trigger), in an order that respects table dependencies (reverse
// of creation order), as the first phase of a recreate-from-declared-
// schema migration (spec.md §4.7).
func DropAllObjects(ctx context.Context, q dialect.ExecQuerier) error {
	objs, err := ListObjects(ctx, q)
	if err != nil {
		return err
	}
	// Drop in reverse-dependency order: triggers and indices first (they
	// depend on their table), then views, then tables. Reversing the
	// sqlite_master listing first puts later-created tables ahead of the
	// tables they reference.
	for i, j := 0, len(objs)-1; i < j; i, j = i+1, j-1 {
		objs[i], objs[j] = objs[j], objs[i]
	}
	order :=map[string]int{"trigger": 0, "index": 1, "view": 2, "table": 3}
	sort.SliceStable(objs, func(i, j int) bool { return order[objs[i].Type] < order[objs[j].Type] })
	for _, o := range objs {
		if o.Name == "sqlite_sequence" {
			continue
		}
		stmt := fmt.Sprintf("DROP %s IF EXISTS %s", o.Type, quoteIdent(o.Name))
		if err := q.Exec(ctx, stmt, nil, nil); err != nil {
			return welerr.NewEngineError("schema.dropAllObjects", err)
		}
	}
	return nil
}

// Recreate runs the full migration recreate sequence described in
// spec.md §4.7: drop all known objects, VACUUM, integrity check, then
// recreate tables (dependency order) and their indices/views/triggers
// from the declared schema. It creates no temporary tables, and rows that
// existed before the drop are not carried over.
func Recreate(ctx context.Context, q dialect.ExecQuerier, tables []*Table, views []*View, triggers []*Trigger, engineVersion string) error {
	if err := DropAllObjects(ctx, q); err != nil {
		return err
	}
	if err := q.Exec(ctx, "VACUUM", nil, nil); err != nil {
		return welerr.NewEngineError("schema.vacuum", err)
	}
	report, err := IntegrityCheck(ctx, q, 100)
	if err != nil {
		return err
	}
	if len(report) != 1 || report[0] != "ok" {
		return welerr.NewSchemaError("", fmt.Sprintf("integrity check reported %s after recreate",
			humanize.Comma(int64(len(report)))))
	}

	ordered, err := TableDependencies(tables)
	if err != nil {
		return err
	}
	for _, t := range ordered {
		for _, stmt := range t.CreateSQL(false) {
			if err := q.Exec(ctx, stmt, nil, nil); err != nil {
				return welerr.NewEngineError("schema.createTable", err)
			}
		}
	}
	for _, v := range views {
		if err := q.Exec(ctx, v.CreateSQL(engineVersion), nil, nil); err != nil {
			return welerr.NewEngineError("schema.createView", err)
		}
	}
	for _, trg := range triggers {
		sql, err := trg.CreateSQL()
		if err != nil {
			return err
		}
		if err := q.Exec(ctx, sql, nil, nil); err != nil {
			return welerr.NewEngineError("schema.createTrigger", err)
		}
	}
	return nil
}

// NewRecreateID returns a fresh random identifier (a UUID string) for
// tagging a single migration run in logs and diagnostics. Recreate
// neither takes nor uses one.
func NewRecreateID() string {
	return uuid.NewString()
}
