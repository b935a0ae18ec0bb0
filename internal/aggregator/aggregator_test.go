package aggregator

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/montanaflynn/stats"
	"github.com/tlsinterop/tlsinterop/internal/model"
)

func init() {
	color.NoColor = true
}

func makeResults() []model.Result {
	servers := []model.Variant{{Name: "stdtls", Index: 0}, {Name: "mint", Index: 1}}
	clients := []model.Variant{{Name: "stdtls", Index: 0}, {Name: "utls", Index: 1}}
	var out []model.Result
	for _, tc := range model.AllTestCases() {
		for _, server := range servers {
			for _, client := range clients {
				outcome := model.Success
				if server.Name == "mint" && tc == model.SessionResumption {
					outcome = model.Unimplemented
				}
				if client.Name == "utls" && tc == model.MutualAuthRequestResponse {
					outcome = model.Failure
				}
				out = append(out, model.Result{
					Spec: model.ScenarioSpec{
						TestCase: tc,
						Server:   server,
						Client:   client,
						Port:     uint16(9001 + len(out)),
					},
					Outcome: outcome,
					Elapsed: time.Duration(len(out)+1) * time.Second,
				})
			}
		}
	}
	return out
}

func TestConsumeSortsRegardlessOfCompletionOrder(t *testing.T) {
	expect := makeResults()
	for seed := int64(0); seed < 5; seed++ {
		shuffled := append([]model.Result{}, expect...)
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		ch := make(chan model.Result)
		go func() {
			defer close(ch)
			for _, r := range shuffled {
				ch <- r
			}
		}()
		var out bytes.Buffer
		agg := New(&out, model.DiscardLogger)
		table := agg.Consume(ch)
		if diff := cmp.Diff(expect, table.Results()); diff != "" {
			t.Fatal(diff)
		}
		// the table is rendered once per completion
		if n := strings.Count(out.String(), "scenarios completed"); n != len(expect) {
			t.Fatal("unexpected number of renderings", n)
		}
	}
}

func TestRenderAndLine(t *testing.T) {
	result := model.Result{
		Spec: model.ScenarioSpec{
			TestCase: model.Greeting,
			Server:   model.Variant{Name: "stdtls"},
			Client:   model.Variant{Name: "utls"},
		},
		Outcome: model.Unimplemented,
	}
	expect := "greeting               , stdtls    , utls      , 🚧"
	if got := Line(&result); got != expect {
		t.Fatalf("expected %q, got %q", expect, got)
	}
	table := &Table{}
	table.Insert(result)
	var out bytes.Buffer
	if err := table.Render(&out); err != nil {
		t.Fatal(err)
	}
	if out.String() != expect+"\n" {
		t.Fatalf("unexpected rendering %q", out.String())
	}
}

func TestCountsAndFailed(t *testing.T) {
	agg := New(&bytes.Buffer{}, nil)
	ch := make(chan model.Result, 64)
	for _, r := range makeResults() {
		ch <- r
	}
	close(ch)
	agg.Consume(ch)
	counts := agg.Counts()
	expect := map[model.Outcome]int{
		model.Success:       20,
		model.Failure:       2,
		model.Unimplemented: 2,
	}
	if diff := cmp.Diff(expect, counts); diff != "" {
		t.Fatal(diff)
	}
	if !agg.Failed() {
		t.Fatal("expected the run to have failed")
	}
}

func TestWriteReport(t *testing.T) {
	agg := New(&bytes.Buffer{}, nil)
	ch := make(chan model.Result, 64)
	for _, r := range makeResults() {
		ch <- r
	}
	close(ch)
	agg.Consume(ch)

	path := filepath.Join(t.TempDir(), "nested", "results.json")
	if err := agg.WriteReport(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	if report.RunID != agg.RunID || report.RunID == "" {
		t.Fatal("unexpected run id", report.RunID)
	}
	if len(report.Results) != 24 {
		t.Fatal("unexpected number of results", len(report.Results))
	}
	first := report.Results[0]
	expect := ReportEntry{
		Test:           "handshake",
		Server:         "stdtls",
		Client:         "stdtls",
		Port:           9001,
		Outcome:        "success",
		ElapsedSeconds: 1,
	}
	if diff := cmp.Diff(expect, first); diff != "" {
		t.Fatal(diff)
	}
	if report.Counts["failure"] != 2 || report.Counts["unimplemented"] != 2 {
		t.Fatal("unexpected counts", report.Counts)
	}
}

func TestWriteSummary(t *testing.T) {
	t.Run("with results", func(t *testing.T) {
		agg := New(&bytes.Buffer{}, nil)
		ch := make(chan model.Result, 64)
		for _, r := range makeResults() {
			ch <- r
		}
		close(ch)
		agg.Consume(ch)
		var out bytes.Buffer
		if err := agg.WriteSummary(&out); err != nil {
			t.Fatal(err)
		}
		summary := out.String()
		for _, s := range []string{"session_resumption", "mint", "🚧", "💔", "🥳",
			"20 success, 2 failure, 2 unimplemented", "median 12.5s"} {
			if !strings.Contains(summary, s) {
				t.Fatal("missing", s, "in", summary)
			}
		}
		if strings.Contains(summary, "SESSION_RESUMPTION") {
			t.Fatal("test case names should not be upper-cased in", summary)
		}
	})

	t.Run("without results", func(t *testing.T) {
		agg := New(&bytes.Buffer{}, nil)
		if _, err := agg.Durations(); err != stats.EmptyInputErr {
			t.Fatal("unexpected error", err)
		}
		var out bytes.Buffer
		if err := agg.WriteSummary(&out); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "0 success, 0 failure, 0 unimplemented") {
			t.Fatal("unexpected summary", out.String())
		}
	})
}
