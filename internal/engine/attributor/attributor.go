package attributor

import (
	"math"
	"sort"

	"github.com/crimson-sun/dropoff/internal/model"
)

// NoEvents labels a failed sequence that has no events at all.
const NoEvents = "No Events"

// Summarize counts, for every failed sequence, the last event it reached and
// ranks those steps by count, descending. Equal counts keep the order in
// which steps were first seen. With no failures the breakdown is empty.
func Summarize(seqs []model.Sequence) model.Breakdown {
	counts := make(map[string]int)
	var order []string
	failed := 0

	for _, s := range seqs {
		if s.Succeeded() {
			continue
		}
		failed++
		last, ok := s.Last()
		if !ok {
			last = NoEvents
		}
		if _, seen := counts[last]; !seen {
			order = append(order, last)
		}
		counts[last]++
	}
	if failed == 0 {
		return model.Breakdown{}
	}

	rows := make([]model.BreakdownRow, len(order))
	for i, step := range order {
		rows[i] = model.BreakdownRow{
			Step:       step,
			Count:      counts[step],
			Percentage: round1(float64(counts[step]) / float64(failed) * 100),
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })

	return model.Breakdown{Rows: rows, Failed: failed}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
