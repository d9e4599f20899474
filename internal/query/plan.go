// Package query turns query requests into Flux and Flux results back into
// query results.
package query

import (
	"fmt"
	"strings"
	"time"
)

// Clause is one step of a query plan. Clauses are rendered to Flux only when
// the plan reaches the store.
type Clause interface {
	flux() string
}

// Plan is an ordered list of clauses; the first one is always a From.
type Plan struct {
	Clauses []Clause
}

// From selects the bucket to read.
type From struct {
	Bucket string
}

// Range bounds the query in time. A non-zero Window renders a relative range
// ending now; otherwise Start and Stop are used as absolute bounds.
type Range struct {
	Start  time.Time
	Stop   time.Time
	Window time.Duration
}

// Filter keeps rows whose Column equals any of Values.
type Filter struct {
	Column string
	Values []string
}

// Group regroups rows by Columns.
type Group struct {
	Columns []string
}

// AggregateFunc is a Flux aggregate function name.
type AggregateFunc string

const (
	AggregateMean AggregateFunc = "mean"
	AggregateMin  AggregateFunc = "min"
	AggregateMax  AggregateFunc = "max"
	AggregateSum  AggregateFunc = "sum"
)

// Aggregate reduces every group to a single row.
type Aggregate struct {
	Func AggregateFunc
}

// Keep drops every column not in Columns.
type Keep struct {
	Columns []string
}

// Distinct returns the distinct values of Column.
type Distinct struct {
	Column string
}

func (c From) flux() string {
	return fmt.Sprintf("from(bucket: %s)", quote(c.Bucket))
}

func (c Range) flux() string {
	if c.Window > 0 {
		return fmt.Sprintf("range(start: -%s)", fluxDuration(c.Window))
	}
	return fmt.Sprintf("range(start: %s, stop: %s)",
		c.Start.UTC().Format(time.RFC3339Nano), c.Stop.UTC().Format(time.RFC3339Nano))
}

func (c Filter) flux() string {
	preds := make([]string, len(c.Values))
	for i, v := range c.Values {
		preds[i] = fmt.Sprintf("r[%s] == %s", quote(c.Column), quote(v))
	}
	return fmt.Sprintf("filter(fn: (r) => %s)", strings.Join(preds, " or "))
}

func (c Group) flux() string {
	return fmt.Sprintf("group(columns: %s)", quoteList(c.Columns))
}

func (c Aggregate) flux() string {
	return string(c.Func) + "()"
}

func (c Keep) flux() string {
	return fmt.Sprintf("keep(columns: %s)", quoteList(c.Columns))
}

func (c Distinct) flux() string {
	return fmt.Sprintf("distinct(column: %s)", quote(c.Column))
}

// Flux renders the plan as a Flux script.
func (p Plan) Flux() string {
	var b strings.Builder
	for i, c := range p.Clauses {
		if i > 0 {
			b.WriteString("\n  |> ")
		}
		b.WriteString(c.flux())
	}
	return b.String()
}

var fluxEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `${`, `\${`)

func quote(s string) string {
	return `"` + fluxEscaper.Replace(s) + `"`
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// fluxDuration renders d in the largest whole unit Flux understands.
func fluxDuration(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%ds", d/time.Second)
	default:
		return fmt.Sprintf("%dms", d/time.Millisecond)
	}
}
