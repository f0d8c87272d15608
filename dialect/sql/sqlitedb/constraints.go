package sqlitedb

import (
	"errors"
	"strings"
)

// errorCoder is implemented by modernc.org/sqlite's *sqlite.Error.
type errorCoder interface {
	Code() int
}

// SQLite primary result codes for constraint violations (the low byte of
// the extended result code; see sqlite3.h SQLITE_CONSTRAINT*).
const (
	sqliteConstraint = 19
)

// IsConstraintError reports whether err resulted from any SQLite
// constraint violation (unique, foreign key, check, not-null...),
// adapted from the teacher's dialect-spanning classifier down to the one
// dialect this module targets (spec.md Non-goal: no dialects beyond
// SQLite).
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[errorCoder](err); ok && e.Code()&0xff == sqliteConstraint {
		return true
	}
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// IsUniqueConstraintError reports whether err resulted from a UNIQUE or
// PRIMARY KEY constraint violation.
func IsUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyConstraintError reports whether err resulted from a
// FOREIGN KEY constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsCheckConstraintError reports whether err resulted from a CHECK
// constraint violation.
func IsCheckConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CHECK constraint failed")
}

// IsNotNullConstraintError reports whether err resulted from a NOT NULL
// constraint violation.
func IsNotNullConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "NOT NULL constraint failed")
}

// asError walks err's Unwrap chain for the first error implementing T.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}
