package output

import (
	"github.com/crimson-sun/dropoff/internal/engine/compactor"
	"github.com/crimson-sun/dropoff/internal/model"
)

// FormatReport returns a copy of the report shaped for the given verbosity.
// At Minimal: traces and vocabulary are dropped.
// At Standard: raw lines in traces are truncated.
// At Full: all fields preserved.
// The input report is never modified.
func FormatReport(r model.Report, verbosity compactor.Verbosity) model.Report {
	switch verbosity {
	case compactor.Minimal:
		r.Traces = nil
		r.Vocabulary = nil
		return r
	case compactor.Full:
		return r
	}

	c := compactor.New(verbosity)
	traces := make([]model.Trace, len(r.Traces))
	for i, tr := range r.Traces {
		steps := make([]model.TraceStep, len(tr.Steps))
		for j, st := range tr.Steps {
			st.Raw = c.Compact(st.Raw)
			steps[j] = st
		}
		tr.Steps = steps
		traces[i] = tr
	}
	if len(traces) > 0 {
		r.Traces = traces
	}
	return r
}
