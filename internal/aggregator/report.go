package aggregator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/tlsinterop/tlsinterop/internal/model"
)

// ReportEntry is the result of a scenario in the results file.
type ReportEntry struct {
	Test           string  `json:"test"`
	Server         string  `json:"server"`
	Client         string  `json:"client"`
	Port           uint16  `json:"port"`
	Outcome        string  `json:"outcome"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Report is the content of the results file.
type Report struct {
	RunID     string         `json:"run_id"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Counts    map[string]int `json:"counts"`
	Results   []ReportEntry  `json:"results"`
}

// NewReport builds the [Report] of the results collected so far.
func (a *Aggregator) NewReport() *Report {
	report := &Report{
		RunID:     a.RunID,
		StartTime: a.StartTime,
		EndTime:   time.Now(),
		Counts:    map[string]int{},
		Results:   []ReportEntry{},
	}
	for _, outcome := range []model.Outcome{model.Success, model.Failure, model.Unimplemented} {
		report.Counts[outcome.String()] = 0
	}
	for _, result := range a.table.results {
		report.Counts[result.Outcome.String()]++
		report.Results = append(report.Results, ReportEntry{
			Test:           result.Spec.TestCase.String(),
			Server:         result.Spec.Server.Name,
			Client:         result.Spec.Client.Name,
			Port:           result.Spec.Port,
			Outcome:        result.Outcome.String(),
			ElapsedSeconds: result.Elapsed.Seconds(),
		})
	}
	return report
}

// WriteReport writes the results file at path, creating its directory.
func (a *Aggregator) WriteReport(path string) error {
	data, err := json.MarshalIndent(a.NewReport(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
