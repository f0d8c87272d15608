package schema

import (
	"sort"
	"strings"

	"github.com/weliteorg/welite/welerr"
)

func newCycleError(cycle []string) error {
	return welerr.NewSchemaError(strings.Join(cycle, " -> "), "cyclic table dependency")
}

// TableDependencies builds a directed graph where an edge A -> B means A
// has a foreign key referencing B, and returns tables in a deterministic
// topological order with referenced tables first (spec.md §4.7,
// "Dependency sort"). Tables are visited in this order on create, reverse
// order on drop.
func TableDependencies(tables []*Table) ([]*Table, error) {
	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	edges := make(map[string][]string, len(tables))
	indegree := make(map[string]int, len(tables))
	for _, t := range tables {
		indegree[t.Name] = 0
	}
	for _, t := range tables {
		seen := map[string]bool{}
		for _, c := range t.Columns {
			if c.References == nil {
				continue
			}
			ref := c.References.RefTable
			if ref == t.Name || seen[ref] {
				continue
			}
			if _, ok := byName[ref]; !ok {
				// A reference to a table outside this batch carries no
				// ordering constraint within it.
				continue
			}
			seen[ref] = true
			edges[ref] = append(edges[ref], t.Name)
			indegree[t.Name]++
		}
	}

	if cyclic, cycle := tablesAreCyclic(tables); cyclic {
		return nil, newCycleError(cycle)
	}

	// Kahn's algorithm, with a deterministic tie-break by name so the
	// same schema always produces the same order.
	var ready []string
	for _, t := range tables {
		if indegree[t.Name] == 0 {
			ready = append(ready, t.Name)
		}
	}
	sort.Strings(ready)

	order := make([]*Table, 0, len(tables))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, byName[name])

		var newlyReady []string
		for _, dependent := range edges[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				newlyReady = append(newlyReady, dependent)
			}
		}
		sort.Strings(newlyReady)
		ready = append(ready, newlyReady...)
		sort.Strings(ready)
	}
	return order, nil
}

// tablesAreCyclic reports whether the reference graph over tables
// contains a strongly-connected component of size > 1 (spec.md §4.7,
// "Cycle detection").
func tablesAreCyclic(tables []*Table) (bool, []string) {
	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}
	adj := make(map[string][]string, len(tables))
	for _, t := range tables {
		for _, c := range t.Columns {
			if c.References == nil {
				continue
			}
			if c.References.RefTable == t.Name {
				// A self-reference is a component of one table, not a cycle.
				continue
			}
			if _, ok := byName[c.References.RefTable]; !ok {
				continue
			}
			adj[t.Name] = append(adj[t.Name], c.References.RefTable)
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(tables))
	var stack []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		stack = append(stack, name)
		for _, next := range adj[name] {
			switch color[next] {
			case white:
				if visit(next) {
					return true
				}
			case gray:
				// Found a back edge: extract the cycle from the stack.
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append(cycle, stack[i])
					if stack[i] == next {
						break
					}
				}
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return false
	}

	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	for _, name := range names {
		if color[name] == white {
			if visit(name) {
				return true, cycle
			}
		}
	}
	return false, nil
}
