package sql

import (
	"strconv"
	"strings"
	"sync"
)

// defaultPoolCapacity is the default number of builders the Pool keeps
// ready for reuse (spec.md §4.2, "Pool capacity N, default 4").
const defaultPoolCapacity = 4

// defaultBuilderCapacity is the initial/floor capacity of a pooled
// builder's backing buffer (spec.md §4.2, "C, default 2048, floor 1024").
const defaultBuilderCapacity = 2048

// minBuilderCapacity is the floor below which a builder is never trimmed.
const minBuilderCapacity = 1024

// SqlBuilder is an append-only SQL text buffer with a parallel list of
// the persistent types registered for each `?` placeholder emitted so
// far, in positional order (spec.md §4.2).
type SqlBuilder struct {
	buf   strings.Builder
	types []PersistentTypeAny
	cap   int
	err   error
}

// SetError records the first non-nil error encountered while rendering an
// AST node (e.g. a LiteralOp whose value could not be encoded). AppendTo
// implementations have no return value per the AST's append_to contract,
// so rendering errors are sticky on the builder, the same way
// bufio.Writer/strings.Builder-style writers report write failures.
func (b *SqlBuilder) SetError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns the first rendering error encountered, if any.
func (b *SqlBuilder) Err() error { return b.err }

// Types returns the placeholder types registered so far, in the order
// their `?` placeholders were emitted.
func (b *SqlBuilder) Types() []PersistentTypeAny { return b.types }

// String returns the SQL text accumulated so far.
func (b *SqlBuilder) String() string { return b.buf.String() }

// Len returns the number of bytes written so far.
func (b *SqlBuilder) Len() int { return b.buf.Len() }

// AppendByte appends a single byte.
func (b *SqlBuilder) AppendByte(c byte) *SqlBuilder {
	b.buf.WriteByte(c)
	return b
}

// Append appends a literal SQL fragment verbatim.
func (b *SqlBuilder) Append(s string) *SqlBuilder {
	b.buf.WriteString(s)
	return b
}

// AppendLong appends the base-10 text of an integer.
func (b *SqlBuilder) AppendLong(v int64) *SqlBuilder {
	b.buf.WriteString(strconv.FormatInt(v, 10))
	return b
}

// AppendIdentity appends a (possibly quoted) identifier.
func (b *SqlBuilder) AppendIdentity(id Identity) *SqlBuilder {
	b.buf.WriteString(id.Quoted())
	return b
}

// AppendExpression serialises an AnyExpression into this builder.
func (b *SqlBuilder) AppendExpression(e AnyExpression) *SqlBuilder {
	e.appendTo(b)
	return b
}

// RegisterBindable records a placeholder type and emits `?`.
func (b *SqlBuilder) RegisterBindable(t PersistentTypeAny) *SqlBuilder {
	b.types = append(b.types, t)
	b.buf.WriteByte('?')
	return b
}

// RegisterArgument renders value as an inlined literal via
// t.ValueToStringAny(v, inline=true); it does not extend Types().
func (b *SqlBuilder) RegisterArgument(t PersistentTypeAny, v any) error {
	s, err := t.ValueToStringAny(v, true)
	if err != nil {
		return err
	}
	b.buf.WriteString(s)
	return nil
}

// RegisterArguments renders a comma-separated list of inlined literals.
func (b *SqlBuilder) RegisterArguments(t PersistentTypeAny, vs []any) error {
	for i, v := range vs {
		if i > 0 {
			b.buf.WriteString(", ")
		}
		if err := b.RegisterArgument(t, v); err != nil {
			return err
		}
	}
	return nil
}

// AppendEach is the common "join with separator, optional wrapping
// prefix/postfix" serialisation helper used by most multi-child AST
// nodes and column-set renderers.
func AppendEach[T any](b *SqlBuilder, items []T, sep, prefix, postfix string, fn func(*SqlBuilder, T)) {
	if prefix != "" {
		b.Append(prefix)
	}
	for i, item := range items {
		if i > 0 {
			b.Append(sep)
		}
		fn(b, item)
	}
	if postfix != "" {
		b.Append(postfix)
	}
}

func (b *SqlBuilder) reset(capHint int) {
	b.buf.Reset()
	if capHint > 0 {
		b.buf.Grow(capHint)
	}
	b.types = b.types[:0]
	b.err = nil
}

// PoolStats is the set of counters spec.md §4.2 requires the pool to
// expose for tests.
type PoolStats struct {
	Gets               int64
	Puts               int64
	ExceededCapacity   int64
	MaxEntries         int
	MaxBuilderCapacity int
}

// Pool hands out SqlBuilders for reuse, bounding both the number of idle
// builders kept and each builder's retained backing-buffer capacity.
type Pool struct {
	mu                 sync.Mutex
	idle               []*SqlBuilder
	maxEntries         int
	initialCapacity    int
	maxBuilderCapacity int
	gets               int64
	puts               int64
	exceededCapacity   int64
}

// NewPool returns a Pool with the given capacity (number of idle builders
// kept) and per-builder initial/floor capacity. A maxEntries <= 0 uses the
// spec default of 4; an initialCapacity <= 0 uses the spec default of
// 2048, floored at 1024.
func NewPool(maxEntries, initialCapacity int) *Pool {
	if maxEntries <= 0 {
		maxEntries = defaultPoolCapacity
	}
	if initialCapacity <= 0 {
		initialCapacity = defaultBuilderCapacity
	}
	if initialCapacity < minBuilderCapacity {
		initialCapacity = minBuilderCapacity
	}
	return &Pool{
		maxEntries:         maxEntries,
		initialCapacity:    initialCapacity,
		maxBuilderCapacity: initialCapacity,
	}
}

// DefaultPool is the process-wide builder pool used by BuildSql/BuildStr
// when no explicit Pool is supplied.
var DefaultPool = NewPool(defaultPoolCapacity, defaultBuilderCapacity)

// Get returns a cleared builder, allocating a new one if the pool is empty.
func (p *Pool) Get() *SqlBuilder {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gets++
	n := len(p.idle)
	if n == 0 {
		b := &SqlBuilder{cap: p.initialCapacity}
		b.buf.Grow(p.initialCapacity)
		return b
	}
	b := p.idle[n-1]
	p.idle = p.idle[:n-1]
	return b
}

// Put clears and returns a builder to the pool, trimming its backing
// buffer if it grew past maxBuilderCapacity, and dropping it instead of
// pooling if the pool is already full.
func (p *Pool) Put(b *SqlBuilder) {
	if b == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.puts++
	if b.buf.Cap() > p.maxBuilderCapacity {
		p.exceededCapacity++
		b.buf = strings.Builder{}
		b.buf.Grow(p.maxBuilderCapacity)
	} else {
		b.reset(0)
	}
	b.types = b.types[:0]
	if len(p.idle) >= p.maxEntries {
		return
	}
	p.idle = append(p.idle, b)
}

// Stats returns a snapshot of pool counters for tests.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		Gets:               p.gets,
		Puts:               p.puts,
		ExceededCapacity:   p.exceededCapacity,
		MaxEntries:         p.maxEntries,
		MaxBuilderCapacity: p.maxBuilderCapacity,
	}
}

// BuildSql acquires a builder from DefaultPool, runs fn, and returns the
// accumulated (sql, types) as a StatementSeed.
func BuildSql(fn func(*SqlBuilder)) (StatementSeed, error) {
	return BuildSqlWith(DefaultPool, fn)
}

// BuildSqlWith is BuildSql against an explicit pool.
func BuildSqlWith(p *Pool, fn func(*SqlBuilder)) (StatementSeed, error) {
	b := p.Get()
	defer p.Put(b)
	fn(b)
	if b.err != nil {
		return StatementSeed{}, b.err
	}
	types := make([]PersistentTypeAny, len(b.types))
	copy(types, b.types)
	return StatementSeed{SQL: b.String(), Types: types}, nil
}

// BuildStr acquires a builder from DefaultPool, runs fn, and returns only
// the accumulated SQL text, ignoring any rendering error (it is meant for
// diagnostics and tests, not for producing an executable seed).
func BuildStr(fn func(*SqlBuilder)) string {
	b := DefaultPool.Get()
	defer DefaultPool.Put(b)
	fn(b)
	return b.String()
}
