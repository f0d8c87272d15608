package schema

import (
	"fmt"
	"strings"

	"github.com/weliteorg/welite/welerr"
)

// TriggerTiming is BEFORE or AFTER.
type TriggerTiming string

const (
	Before TriggerTiming = "BEFORE"
	After  TriggerTiming = "AFTER"
)

// TriggerEvent is INSERT, UPDATE [OF col...], or DELETE.
type TriggerEvent struct {
	kind    string
	ofCols  []string
}

func OnInsert() TriggerEvent { return TriggerEvent{kind: "INSERT"} }
func OnDelete() TriggerEvent { return TriggerEvent{kind: "DELETE"} }

// OnUpdate declares an UPDATE event, optionally restricted to ofCols via
// "UPDATE OF col1, col2".
func OnUpdate(ofCols ...string) TriggerEvent {
	return TriggerEvent{kind: "UPDATE", ofCols: ofCols}
}

func (e TriggerEvent) render() string {
	if e.kind != "UPDATE" || len(e.ofCols) == 0 {
		return e.kind
	}
	quoted := make([]string, len(e.ofCols))
	for i, c := range e.ofCols {
		quoted[i] = quoteIdent(c)
	}
	return "UPDATE OF " + strings.Join(quoted, ", ")
}

// TriggerBody is a scoped statement-builder for a trigger's BEGIN...END
// block. It tracks the triggering table and event so old()/new() and
// bind-placeholder use can be rejected per spec.md §4.7(b)-(d).
type TriggerBody struct {
	table     string
	event     string
	stmts     []string
	err       error
}

func newTriggerBody(table, event string) *TriggerBody {
	return &TriggerBody{table: table, event: event}
}

// Old references column col of the row being replaced. Rejected (sets a
// sticky error) on an INSERT trigger, which has no OLD row.
func (tb *TriggerBody) Old(col string) string {
	if tb.event == "INSERT" {
		tb.setErr(welerr.NewSchemaError(tb.table, "OLD is not available in an INSERT trigger"))
		return ""
	}
	return "OLD." + quoteIdent(col)
}

// New references column col of the row being inserted/updated. Rejected
// on a DELETE trigger, which has no NEW row.
func (tb *TriggerBody) New(col string) string {
	if tb.event == "DELETE" {
		tb.setErr(welerr.NewSchemaError(tb.table, "NEW is not available in a DELETE trigger"))
		return ""
	}
	return "NEW." + quoteIdent(col)
}

func (tb *TriggerBody) setErr(err error) {
	if tb.err == nil {
		tb.err = err
	}
}

// Statement appends a raw body statement. A statement containing a "?"
// bind placeholder is rejected with a sticky SchemaError instead, since
// triggers are not parameterised (spec.md §4.7(d)).
func (tb *TriggerBody) Statement(sql string) *TriggerBody {
	if strings.Contains(sql, "?") {
		tb.setErr(welerr.NewSchemaError(tb.table, "trigger bodies may not contain bind placeholders"))
		return tb
	}
	tb.stmts = append(tb.stmts, strings.TrimSuffix(strings.TrimSpace(sql), ";"))
	return tb
}

// Raise appends a "SELECT CASE WHEN <when> THEN RAISE(action, 'msg') END"
// body statement, the common case for enforcing invariants from a trigger.
func (tb *TriggerBody) Raise(when string, action string, message string) *TriggerBody {
	return tb.Statement(fmt.Sprintf("SELECT CASE WHEN %s THEN RAISE(%s, '%s') END", when, action, strings.ReplaceAll(message, "'", "''")))
}

// Trigger is a declared CREATE TRIGGER statement.
type Trigger struct {
	Name    string
	Timing  TriggerTiming
	Event   TriggerEvent
	Table   string
	When    string
	Body    *TriggerBody
	Temp    bool
}

// NewTrigger declares a trigger named name firing timing/event on table,
// whose body is assembled via build.
func NewTrigger(name string, timing TriggerTiming, event TriggerEvent, table string, build func(*TriggerBody)) *Trigger {
	body := newTriggerBody(table, event.kind)
	build(body)
	return &Trigger{Name: name, Timing: timing, Event: event, Table: table, Body: body}
}

// WhenCondition attaches a WHEN <predicate> guard.
func (t *Trigger) WhenCondition(predicateSQL string) *Trigger {
	t.When = predicateSQL
	return t
}

// Temporary marks the trigger TEMP.
func (t *Trigger) Temporary() *Trigger {
	t.Temp = true
	return t
}

// CreateSQL renders the full CREATE TRIGGER statement, or returns the
// first error recorded while building its body.
func (t *Trigger) CreateSQL() (string, error) {
	if t.Body.err != nil {
		return "", t.Body.err
	}
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if t.Temp {
		sb.WriteString("TEMP ")
	}
	fmt.Fprintf(&sb, "TRIGGER IF NOT EXISTS %s\n  %s %s ON %s\n",
		quoteIdent(t.Name), t.Timing, t.Event.render(), quoteIdent(t.Table))
	if t.When != "" {
		fmt.Fprintf(&sb, "  WHEN %s\n", t.When)
	}
	sb.WriteString("BEGIN ")
	for _, s := range t.Body.stmts {
		sb.WriteString(s)
		sb.WriteString("; ")
	}
	sb.WriteString("END;")
	return sb.String(), nil
}
