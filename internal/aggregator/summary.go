package aggregator

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/montanaflynn/stats"
	"github.com/tlsinterop/tlsinterop/internal/model"
)

// DurationStats summarizes how long scenarios took.
type DurationStats struct {
	Mean   time.Duration
	Median time.Duration
	P90    time.Duration
}

// Durations computes the [DurationStats] of the collected results.
func (a *Aggregator) Durations() (*DurationStats, error) {
	var data stats.Float64Data
	for _, result := range a.table.results {
		data = append(data, result.Elapsed.Seconds())
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}
	p90, err := stats.Percentile(data, 90)
	if err != nil {
		return nil, err
	}
	seconds := func(v float64) time.Duration {
		return time.Duration(v * float64(time.Second))
	}
	return &DurationStats{
		Mean:   seconds(mean),
		Median: seconds(median),
		P90:    seconds(p90),
	}, nil
}

type pair struct {
	server, client string
}

// WriteSummary writes a matrix with one row per (server, client) pair and
// one column per test case, followed by the counts and the durations.
func (a *Aggregator) WriteSummary(w io.Writer) error {
	var (
		tests []model.TestCase
		pairs []pair
	)
	cells := make(map[pair]map[model.TestCase]model.Outcome)
	for _, result := range a.table.results {
		spec := result.Spec
		if len(tests) <= 0 || tests[len(tests)-1] != spec.TestCase {
			tests = append(tests, spec.TestCase)
		}
		p := pair{spec.Server.Name, spec.Client.Name}
		if cells[p] == nil {
			cells[p] = make(map[model.TestCase]model.Outcome)
			pairs = append(pairs, p)
		}
		cells[p][spec.TestCase] = result.Outcome
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	// test case names must match the wire names
	tw.Style().Format.Header = text.FormatDefault
	header := table.Row{text.FgHiCyan.Sprint("SERVER"), text.FgHiCyan.Sprint("CLIENT")}
	for _, tc := range tests {
		header = append(header, text.FgHiCyan.Sprint(tc.String()))
	}
	tw.AppendHeader(header)
	for _, p := range pairs {
		row := table.Row{p.server, p.client}
		for _, tc := range tests {
			outcome, found := cells[p][tc]
			if !found {
				row = append(row, "")
				continue
			}
			row = append(row, outcome.Marker())
		}
		tw.AppendRow(row)
	}
	tw.Render()

	counts := a.Counts()
	if _, err := fmt.Fprintf(w, "%d success, %d failure, %d unimplemented\n",
		counts[model.Success], counts[model.Failure], counts[model.Unimplemented]); err != nil {
		return err
	}
	durations, err := a.Durations()
	if err != nil {
		return nil // no results
	}
	_, err = fmt.Fprintf(w, "scenario duration: mean %s, median %s, p90 %s\n",
		durations.Mean.Round(time.Millisecond),
		durations.Median.Round(time.Millisecond),
		durations.P90.Round(time.Millisecond))
	return err
}
