package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/crimson-sun/dropoff/internal/engine/compactor"
	"github.com/crimson-sun/dropoff/internal/model"
)

func baseReport() model.Report {
	return model.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Stats:       model.Stats{Lines: 3, Transactions: 1, Failed: 1},
		FinalLoss:   0.42,
		Vocabulary:  []model.VocabEntry{{ID: 0, Symbol: "<PAD>"}, {ID: 1, Symbol: "<UNK>"}},
		Breakdown: model.Breakdown{
			Rows:   []model.BreakdownRow{{Step: "UseCase_AuthUser", Count: 1, Percentage: 100}},
			Failed: 1,
		},
		Traces: []model.Trace{{
			TransactionID: 1000,
			Status:        "FAILURE",
			Steps: []model.TraceStep{{
				Step:  1,
				Event: "UseCase_AuthUser",
				Raw:   strings.Repeat("r", 200),
			}},
		}},
	}
}

func TestFormatReportMinimal(t *testing.T) {
	r := FormatReport(baseReport(), compactor.Minimal)

	if r.Traces != nil {
		t.Fatal("Traces should be nil at Minimal")
	}
	if r.Vocabulary != nil {
		t.Fatal("Vocabulary should be nil at Minimal")
	}
	if r.Breakdown.Failed != 1 || r.FinalLoss != 0.42 {
		t.Fatal("summary fields should be preserved at Minimal")
	}

	data, _ := json.Marshal(r)
	s := string(data)
	if strings.Contains(s, `"traces"`) || strings.Contains(s, `"vocabulary"`) {
		t.Fatalf("omitted fields should not appear in JSON: %s", s)
	}
}

func TestFormatReportStandardTruncates(t *testing.T) {
	in := baseReport()
	r := FormatReport(in, compactor.Standard)

	got := r.Traces[0].Steps[0].Raw
	if want := strings.Repeat("r", compactor.StandardWidth) + "..."; got != want {
		t.Fatalf("expected truncated raw line, got %d bytes", len(got))
	}
	if len(in.Traces[0].Steps[0].Raw) != 200 {
		t.Fatal("input report was modified")
	}
	if len(r.Vocabulary) != 2 {
		t.Fatal("Vocabulary should be preserved at Standard")
	}
}

func TestFormatReportFull(t *testing.T) {
	r := FormatReport(baseReport(), compactor.Full)
	if len(r.Traces[0].Steps[0].Raw) != 200 {
		t.Fatal("Raw should be untouched at Full")
	}
}
