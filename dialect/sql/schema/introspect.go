package schema

import (
	"context"
	"fmt"

	"github.com/weliteorg/welite/dialect"
	"github.com/weliteorg/welite/welerr"
)

// SchemaObject is one row of sqlite_master (spec.md §4.7, "SQLite schema
// table").
type SchemaObject struct {
	Type     string
	Name     string
	TblName  string
	RootPage int
	SQL      string
}

// ObjectTypes are the sqlite_master kinds the migration runner knows how
// to drop and recreate.
var ObjectTypes = []string{"table", "index", "view", "trigger"}

func objectExists(ctx context.Context, q dialect.ExecQuerier, kind, name string) (bool, error) {
	var count int64
	err := q.Query(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?`,
		[]any{kind, name}, &count)
	if err != nil {
		return false, welerr.NewEngineError("schema.exists", err)
	}
	return count > 0, nil
}

// ListObjects returns every sqlite_master row whose type is in
// ObjectTypes, in the order SQLite reports them (no ORDER BY is applied).
func ListObjects(ctx context.Context, q dialect.ExecQuerier) ([]SchemaObject, error) {
	var rows []SchemaObject
	err := q.Query(ctx,
		`SELECT type, name, tbl_name, rootpage, sql FROM sqlite_master WHERE type IN (?, ?, ?, ?)`,
		[]any{"table", "index", "view", "trigger"}, &rows)
	if err != nil {
		return nil, welerr.NewEngineError("schema.listObjects", err)
	}
	return rows, nil
}

// IntegrityCheck runs PRAGMA INTEGRITY_CHECK(maxErrors) and returns the
// reported diagnostic lines, a single "ok" string when healthy (spec.md
// §4.7, "integrityCheck").
func IntegrityCheck(ctx context.Context, q dialect.ExecQuerier, maxErrors int) ([]string, error) {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	var lines []string
	err := q.Query(ctx, fmt.Sprintf("PRAGMA INTEGRITY_CHECK(%d)", maxErrors), nil, &lines)
	if err != nil {
		return nil, welerr.NewEngineError("schema.integrityCheck", err)
	}
	return lines, nil
}

// ForeignKeyInfo is one row of PRAGMA foreign_key_list(table).
type ForeignKeyInfo struct {
	ID       int
	Seq      int
	Table    string
	From     string
	To       string
	OnUpdate string
	OnDelete string
}

// ForeignKeyList runs PRAGMA foreign_key_list(table) (spec.md §4.7).
func ForeignKeyList(ctx context.Context, q dialect.ExecQuerier, table string) ([]ForeignKeyInfo, error) {
	var rows []ForeignKeyInfo
	err := q.Query(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table)), nil, &rows)
	if err != nil {
		return nil, welerr.NewEngineError("schema.foreignKeyList", err)
	}
	return rows, nil
}

// ForeignKeyViolation is one row of PRAGMA foreign_key_check(table).
type ForeignKeyViolation struct {
	TableName               string `db:"table"`
	RowID                   *int64 `db:"rowid"`
	RefersTo                string `db:"parent"`
	FailingConstraintIndex  int    `db:"fkid"`
}

// ForeignKeyCheck runs PRAGMA foreign_key_check(table) (spec.md §4.7).
func ForeignKeyCheck(ctx context.Context, q dialect.ExecQuerier, table string) ([]ForeignKeyViolation, error) {
	var rows []ForeignKeyViolation
	err := q.Query(ctx, fmt.Sprintf("PRAGMA foreign_key_check(%s)", quoteIdent(table)), nil, &rows)
	if err != nil {
		return nil, welerr.NewEngineError("schema.foreignKeyCheck", err)
	}
	return rows, nil
}
