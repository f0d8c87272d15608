package schema

import (
	"fmt"
	"strings"
)

// ValidationError reports a single problem found while validating a
// declared schema or a proposed migration between two schema versions.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates a change that can fail against existing data
	// (e.g. a dropped column, a widened NOT NULL constraint).
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

func (r *ValidationResult) HasErrors() bool   { return len(r.Errors) > 0 }
func (r *ValidationResult) HasWarnings() bool { return len(r.Warnings) > 0 }

// HasBreakingChanges reports whether any error or warning is flagged
// Breaking.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			if w.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures ValidateDiff.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn    bool
	allowDropTable     bool
	allowDropIndex     bool
	allowNullToNotNull bool
}

func AllowDropColumn() ValidateOption     { return func(c *validateConfig) { c.allowDropColumn = true } }
func AllowDropTable() ValidateOption      { return func(c *validateConfig) { c.allowDropTable = true } }
func AllowDropIndex() ValidateOption      { return func(c *validateConfig) { c.allowDropIndex = true } }
func AllowNullToNotNull() ValidateOption  { return func(c *validateConfig) { c.allowNullToNotNull = true } }

// ValidateDiff validates the difference between two declared schemas,
// both given as []*Table: errors for breaking changes (a dropped table or
// column, a widened NOT NULL), warnings for operations that are legal but
// may fail against existing data. It takes two declared schemas rather
// than a live database because nothing in this package reconstructs a
// []*Table from sqlite_master; Recreate (spec.md §4.7) always drops and
// rebuilds from the desired schema alone, so ValidateDiff is not on that
// path. Callers that keep their own record of a prior declared schema can
// call it directly, ahead of an Open, to catch a breaking change before
// ever reaching Recreate.
func ValidateDiff(current, desired []*Table, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	result := &ValidationResult{}
	currentMap := make(map[string]*Table, len(current))
	for _, t := range current {
		currentMap[t.Name] = t
	}
	desiredMap := make(map[string]*Table, len(desired))
	for _, t := range desired {
		desiredMap[t.Name] = t
	}

	for name := range currentMap {
		if _, ok := desiredMap[name]; !ok {
			err := &ValidationError{Table: name, Message: "table will be dropped", Breaking: true}
			if cfg.allowDropTable {
				result.Warnings = append(result.Warnings, err)
			} else {
				result.Errors = append(result.Errors, err)
			}
		}
	}

	for name, desiredTable := range desiredMap {
		currentTable, exists := currentMap[name]
		if !exists {
			continue
		}
		validateTableDiff(currentTable, desiredTable, cfg, result)
	}

	return result
}

func validateTableDiff(current, desired *Table, cfg *validateConfig, result *ValidationResult) {
	currentCols := make(map[string]ColumnDecl, len(current.Columns))
	for _, c := range current.Columns {
		currentCols[c.Name] = c
	}

	for name := range currentCols {
		found := false
		for _, c := range desired.Columns {
			if c.Name == name {
				found = true
				break
			}
		}
		if !found {
			err := &ValidationError{Table: current.Name, Column: name, Message: "column will be dropped", Breaking: true}
			if cfg.allowDropColumn {
				result.Warnings = append(result.Warnings, err)
			} else {
				result.Errors = append(result.Errors, err)
			}
		}
	}

	for _, desiredCol := range desired.Columns {
		currentCol, exists := currentCols[desiredCol.Name]
		if !exists {
			if !desiredCol.Nullable && !desiredCol.HasDefault {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table: current.Name, Column: desiredCol.Name,
					Message: "new NOT NULL column without default value may fail if table has data",
				})
			}
			continue
		}

		if currentCol.Affinity != desiredCol.Affinity {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table: current.Name, Column: desiredCol.Name,
				Message: fmt.Sprintf("column affinity changing from %s to %s", currentCol.Affinity, desiredCol.Affinity),
			})
		}

		if currentCol.Nullable && !desiredCol.Nullable {
			err := &ValidationError{
				Table: current.Name, Column: desiredCol.Name,
				Message:  "column changing from NULL to NOT NULL may fail if column has NULL values",
				Breaking: true,
			}
			if cfg.allowNullToNotNull {
				result.Warnings = append(result.Warnings, err)
			} else {
				result.Errors = append(result.Errors, err)
			}
		}

		if !currentCol.Unique && desiredCol.Unique {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table: current.Name, Column: desiredCol.Name,
				Message: "adding UNIQUE constraint may fail if duplicate values exist",
			})
		}
	}

	currentIdxs := make(map[string]*Index, len(current.Indices))
	for _, idx := range current.Indices {
		currentIdxs[idx.resolvedName(current.Name)] = idx
	}
	for name := range currentIdxs {
		found := false
		for _, idx := range desired.Indices {
			if idx.resolvedName(desired.Name) == name {
				found = true
				break
			}
		}
		if !found {
			err := &ValidationError{Table: current.Name, Message: fmt.Sprintf("index %q will be dropped", name)}
			if cfg.allowDropIndex {
				result.Warnings = append(result.Warnings, err)
			} else {
				result.Errors = append(result.Errors, err)
			}
		}
	}
}

// ValidateTable validates a single table definition in isolation: a
// primary key present, no duplicate column/index names, and every index
// column actually declared on the table (spec.md §4.7's dependency sort
// and DDL emission both assume these hold).
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}

	if len(t.CompositePK) == 0 {
		hasPK := false
		for _, c := range t.Columns {
			if c.PrimaryKey {
				hasPK = true
				break
			}
		}
		if !hasPK {
			result.Warnings = append(result.Warnings, &ValidationError{Table: t.Name, Message: "table has no primary key"})
		}
	}

	colNames := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if colNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{Table: t.Name, Column: c.Name, Message: "duplicate column name"})
		}
		colNames[c.Name] = true
	}

	idxNames := make(map[string]bool, len(t.Indices))
	for _, idx := range t.Indices {
		name := idx.resolvedName(t.Name)
		if idxNames[name] {
			result.Errors = append(result.Errors, &ValidationError{Table: t.Name, Message: fmt.Sprintf("duplicate index name: %s", name)})
		}
		idxNames[name] = true

		for _, col := range idx.Columns {
			if !colNames[col] {
				result.Errors = append(result.Errors, &ValidationError{
					Table: t.Name, Message: fmt.Sprintf("index %q references non-existent column %q", name, col),
				})
			}
		}
	}

	for _, c := range t.Columns {
		if c.References == nil {
			continue
		}
		if !colNames[c.References.Column] {
			result.Errors = append(result.Errors, &ValidationError{
				Table: t.Name, Message: fmt.Sprintf("foreign key references non-existent column %q", c.References.Column),
			})
		}
	}

	return result
}

// ValidateSchema validates every table in a declared schema together:
// each table individually (ValidateTable), plus cross-table checks (no
// duplicate table names, every foreign key's referenced table exists).
func ValidateSchema(tables []*Table) *ValidationResult {
	result := &ValidationResult{}

	tableNames := make(map[string]bool, len(tables))
	for _, t := range tables {
		if tableNames[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{Table: t.Name, Message: "duplicate table name"})
		}
		tableNames[t.Name] = true

		tableResult := ValidateTable(t)
		result.Errors = append(result.Errors, tableResult.Errors...)
		result.Warnings = append(result.Warnings, tableResult.Warnings...)
	}

	for _, t := range tables {
		for _, c := range t.Columns {
			if c.References == nil {
				continue
			}
			if !tableNames[c.References.RefTable] {
				result.Errors = append(result.Errors, &ValidationError{
					Table: t.Name, Message: fmt.Sprintf("foreign key references non-existent table %q", c.References.RefTable),
				})
			}
		}
	}

	if _, cycle := tablesAreCyclic(tables); cycle != nil {
		result.Errors = append(result.Errors, &ValidationError{
			Message:  fmt.Sprintf("cyclic table dependency: %s", strings.Join(cycle, " -> ")),
			Breaking: true,
		})
	}

	return result
}
