// Package aggregator consumes scenario results in completion order and
// keeps them sorted by test case, server and client.
package aggregator

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/tlsinterop/tlsinterop/internal/model"
)

// Aggregator collects the results of a run.
type Aggregator struct {
	// Logger is the OPTIONAL logger.
	Logger model.Logger

	// Writer is the MANDATORY writer where we render the table.
	Writer io.Writer

	// RunID identifies the run in the results file.
	RunID string

	// StartTime is the time when the run started.
	StartTime time.Time

	table Table
}

// New creates a new [Aggregator] rendering to w.
func New(w io.Writer, logger model.Logger) *Aggregator {
	return &Aggregator{
		Logger:    model.ValidLoggerOrDefault(logger),
		Writer:    w,
		RunID:     uuid.Must(uuid.NewRandom()).String(),
		StartTime: time.Now(),
	}
}

// Consume reads results until the channel is closed, re-rendering the
// full table after every result, and returns the final table.
func (a *Aggregator) Consume(results <-chan model.Result) *Table {
	for result := range results {
		a.table.Insert(result)
		fmt.Fprintf(a.Writer, "\n%d scenarios completed\n", a.table.Len())
		if err := a.table.Render(a.Writer); err != nil {
			a.Logger.Warnf("aggregator: cannot render table: %s", err.Error())
		}
	}
	return &a.table
}

// Counts returns the number of results per outcome.
func (a *Aggregator) Counts() map[model.Outcome]int {
	out := make(map[model.Outcome]int)
	for _, result := range a.table.results {
		out[result.Outcome]++
	}
	return out
}

// Failed returns whether any scenario failed.
func (a *Aggregator) Failed() bool {
	return a.Counts()[model.Failure] > 0
}
