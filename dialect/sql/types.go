package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/weliteorg/welite/welerr"
)

// Affinity is one of SQLite's four storage classes.
type Affinity string

const (
	AffinityInteger Affinity = "INTEGER"
	AffinityReal    Affinity = "REAL"
	AffinityText    Affinity = "TEXT"
	AffinityBlob    Affinity = "BLOB"
)

// Binder is the subset of the statement-cache binding capability
// (spec.md §4.8/§6) that a PersistentType needs in order to bind a value
// into a prepared statement slot.
type Binder interface {
	BindNull(index int) error
	BindLong(index int, v int64) error
	BindDouble(index int, v float64) error
	BindString(index int, v string) error
	BindBlob(index int, v []byte) error
}

// PersistentTypeAny is the type-erased view of PersistentType[T] used
// wherever heterogeneous persistent types must sit in one slice (the
// SqlBuilder's placeholder-type list, a StatementSeed, ColumnValues...).
type PersistentTypeAny interface {
	// Name identifies the shape, e.g. "INTEGER", "nullable TEXT".
	Name() string
	// SQLType returns the affinity keyword used in column DDL.
	SQLType() Affinity
	// Nullable reports whether a null bind/value is accepted.
	Nullable() bool
	// ValueToStringAny renders v as a literal SQL fragment.
	ValueToStringAny(v any, inline bool) (string, error)
	// BindAny binds v into slot index of b.
	BindAny(b Binder, index int, v any) error
	// EqualAny reports structural equality with another persistent type.
	EqualAny(other PersistentTypeAny) bool
}

// PersistentType associates a Go value shape T with its SQLite affinity,
// a literal serialiser, and a bind primitive (spec.md §4.1).
type PersistentType[T any] struct {
	name     string
	sqlType  Affinity
	nullable bool
	toString func(v T, inline bool) (string, error)
	bind     func(b Binder, index int, v T) error
}

func (t PersistentType[T]) Name() string      { return t.name }
func (t PersistentType[T]) SQLType() Affinity { return t.sqlType }
func (t PersistentType[T]) Nullable() bool    { return t.nullable }

// ValueToString renders a typed value as an inlinable SQL literal.
func (t PersistentType[T]) ValueToString(v T, inline bool) (string, error) {
	return t.toString(v, inline)
}

// Bind writes a typed value into slot index of b.
func (t PersistentType[T]) Bind(b Binder, index int, v T) error {
	return t.bind(b, index, v)
}

func (t PersistentType[T]) ValueToStringAny(v any, inline bool) (string, error) {
	if v == nil {
		if !t.nullable {
			return "", welerr.NewTypeMismatchError(t.name, "nil")
		}
		return "NULL", nil
	}
	tv, ok := v.(T)
	if !ok {
		return "", welerr.NewTypeMismatchError(t.name, fmt.Sprintf("%T", v))
	}
	return t.toString(tv, inline)
}

func (t PersistentType[T]) BindAny(b Binder, index int, v any) error {
	if v == nil {
		if !t.nullable {
			return welerr.NewTypeMismatchError(t.name, "nil")
		}
		return b.BindNull(index)
	}
	tv, ok := v.(T)
	if !ok {
		return welerr.NewTypeMismatchError(t.name, fmt.Sprintf("%T", v))
	}
	return t.bind(b, index, tv)
}

func (t PersistentType[T]) EqualAny(other PersistentTypeAny) bool {
	o, ok := other.(PersistentType[T])
	if !ok {
		return false
	}
	return t.name == o.name && t.sqlType == o.sqlType && t.nullable == o.nullable
}

// NullableType wraps a base PersistentType as a PersistentType[*T], so
// that a nil pointer (or a nil passed to BindAny/ValueToStringAny) is
// accepted and rendered as NULL / bound as NULL, instead of rejected.
func NullableType[T any](base PersistentType[T]) PersistentType[*T] {
	return PersistentType[*T]{
		name:     "nullable " + base.name,
		sqlType:  base.sqlType,
		nullable: true,
		toString: func(v *T, inline bool) (string, error) {
			if v == nil {
				return "NULL", nil
			}
			return base.toString(*v, inline)
		},
		bind: func(b Binder, index int, v *T) error {
			if v == nil {
				return b.BindNull(index)
			}
			return base.bind(b, index, *v)
		},
	}
}

func escapeStringLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func quoteStringLiteral(s string) string {
	return "'" + escapeStringLiteral(s) + "'"
}

func blobLiteral(b []byte) string {
	var sb strings.Builder
	sb.WriteString("X'")
	const hex = "0123456789ABCDEF"
	for _, c := range b {
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	sb.WriteByte('\'')
	return sb.String()
}

// Registered primitive persistent types (spec.md §4.1).
var (
	Bool = PersistentType[bool]{
		name: "BOOLEAN", sqlType: AffinityInteger,
		toString: func(v bool, _ bool) (string, error) {
			if v {
				return "1", nil
			}
			return "0", nil
		},
		bind: func(b Binder, i int, v bool) error {
			n := int64(0)
			if v {
				n = 1
			}
			return b.BindLong(i, n)
		},
	}

	Byte = widenedInt[int8]("TINYINT")
	Short = widenedInt[int16]("SMALLINT")
	Int   = widenedInt[int32]("INT")
	Long  = widenedInt[int64]("INTEGER")

	Float = PersistentType[float32]{
		name: "FLOAT", sqlType: AffinityReal,
		toString: func(v float32, _ bool) (string, error) {
			return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
		},
		bind: func(b Binder, i int, v float32) error { return b.BindDouble(i, float64(v)) },
	}

	Double = PersistentType[float64]{
		name: "REAL", sqlType: AffinityReal,
		toString: func(v float64, _ bool) (string, error) {
			return strconv.FormatFloat(v, 'g', -1, 64), nil
		},
		bind: func(b Binder, i int, v float64) error { return b.BindDouble(i, v) },
	}

	String = PersistentType[string]{
		name: "TEXT", sqlType: AffinityText,
		toString: func(v string, inline bool) (string, error) {
			if inline {
				return quoteStringLiteral(v), nil
			}
			return v, nil
		},
		bind: func(b Binder, i int, v string) error { return b.BindString(i, v) },
	}

	Blob = PersistentType[[]byte]{
		name: "BLOB", sqlType: AffinityBlob,
		toString: func(v []byte, _ bool) (string, error) {
			return blobLiteral(v), nil
		},
		bind: func(b Binder, i int, v []byte) error { return b.BindBlob(i, v) },
	}

	// UByte, UShort, UInt, ULong are stored in the next wider signed
	// integer domain; two's-complement bit pattern is preserved so the
	// round trip through the wider signed column reproduces the original
	// unsigned value (spec.md §4.1, §9 "Unsigned integer persistence").
	UByte  = widenedUnsigned[uint8, int16]("TINYINT UNSIGNED", func(v uint8) int16 { return int16(v) }, func(v int64) uint8 { return uint8(v) })
	UShort = widenedUnsigned[uint16, int32]("SMALLINT UNSIGNED", func(v uint16) int32 { return int32(v) }, func(v int64) uint16 { return uint16(v) })
	UInt   = widenedUnsigned[uint32, int64]("INT UNSIGNED", func(v uint32) int64 { return int64(v) }, func(v int64) uint32 { return uint32(v) })
	// ULong stores the 64-bit unsigned value's bit pattern directly into a
	// signed INTEGER column; decoding reinterprets the bits as unsigned.
	ULong = PersistentType[uint64]{
		name: "BIGINT UNSIGNED", sqlType: AffinityInteger,
		toString: func(v uint64, _ bool) (string, error) {
			return strconv.FormatInt(int64(v), 10), nil
		},
		bind: func(b Binder, i int, v uint64) error { return b.BindLong(i, int64(v)) },
	}
)

func widenedInt[T ~int8 | ~int16 | ~int32 | ~int64](sqlName string) PersistentType[T] {
	return PersistentType[T]{
		name: sqlName, sqlType: AffinityInteger,
		toString: func(v T, _ bool) (string, error) {
			return strconv.FormatInt(int64(v), 10), nil
		},
		bind: func(b Binder, i int, v T) error { return b.BindLong(i, int64(v)) },
	}
}

func widenedUnsigned[U ~uint8 | ~uint16 | ~uint32, W ~int16 | ~int32 | ~int64](sqlName string, widen func(U) W, narrow func(int64) U) PersistentType[U] {
	return PersistentType[U]{
		name: sqlName, sqlType: AffinityInteger,
		toString: func(v U, _ bool) (string, error) {
			return strconv.FormatInt(int64(widen(v)), 10), nil
		},
		bind: func(b Binder, i int, v U) error { return b.BindLong(i, int64(widen(v))) },
	}
}
