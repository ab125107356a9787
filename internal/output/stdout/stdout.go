// Package stdout prints analysis reports as JSON, one document per run.
package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/crimson-sun/dropoff/internal/engine/compactor"
	"github.com/crimson-sun/dropoff/internal/model"
	"github.com/crimson-sun/dropoff/internal/output"
)

// Output prints reports shaped for a verbosity level. Writes are serialized
// so concurrent runs never interleave their documents.
type Output struct {
	mu        sync.Mutex
	w         io.Writer
	indent    string
	verbosity compactor.Verbosity
}

// New prints to os.Stdout. With pretty set, documents are indented by two
// spaces; otherwise each report is a single line.
func New(verbosity compactor.Verbosity, pretty bool) *Output {
	return NewWriter(os.Stdout, verbosity, pretty)
}

// NewWriter prints to w instead of os.Stdout.
func NewWriter(w io.Writer, verbosity compactor.Verbosity, pretty bool) *Output {
	o := &Output{w: w, verbosity: verbosity}
	if pretty {
		o.indent = "  "
	}
	return o
}

func (o *Output) Write(_ context.Context, report model.Report) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	enc := json.NewEncoder(o.w)
	enc.SetIndent("", o.indent)
	if err := enc.Encode(output.FormatReport(report, o.verbosity)); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

// Close is a no-op; os.Stdout stays open for the process.
func (o *Output) Close() error { return nil }
