package aggregator

import (
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"
	"github.com/tlsinterop/tlsinterop/internal/model"
)

var outcomeColors = map[model.Outcome]*color.Color{
	model.Success:       color.New(color.FgGreen),
	model.Failure:       color.New(color.FgRed),
	model.Unimplemented: color.New(color.FgYellow),
}

// Table is the sorted view of the results received so far. It is not
// safe for concurrent use: one goroutine owns it.
type Table struct {
	results []model.Result
}

// Insert adds a result and restores the sort order.
func (t *Table) Insert(result model.Result) {
	t.results = append(t.results, result)
	slices.SortStableFunc(t.results, func(a, b model.Result) int {
		switch {
		case a.Spec.Less(&b.Spec):
			return -1
		case b.Spec.Less(&a.Spec):
			return 1
		default:
			return 0
		}
	})
}

// Results returns a copy of the sorted results.
func (t *Table) Results() []model.Result {
	return slices.Clone(t.results)
}

// Len returns the number of results.
func (t *Table) Len() int {
	return len(t.results)
}

// Line formats a single row of the table.
func Line(result *model.Result) string {
	return fmt.Sprintf("%-23s, %-10s, %-10s, %s",
		result.Spec.TestCase, result.Spec.Server.Name, result.Spec.Client.Name, result.Outcome.Marker())
}

// Render writes the whole table to w, colouring each row by outcome.
func (t *Table) Render(w io.Writer) error {
	for idx := range t.results {
		result := &t.results[idx]
		if _, err := outcomeColors[result.Outcome].Fprintln(w, Line(result)); err != nil {
			return err
		}
	}
	return nil
}
