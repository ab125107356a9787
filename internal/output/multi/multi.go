// Package multi tees reports to several outputs, for example stdout plus a
// file.
package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/dropoff/internal/model"
	"github.com/crimson-sun/dropoff/internal/output"
)

// Multi is an output.Output backed by a fixed list of outputs, visited in
// order. A failing output does not stop delivery to the ones after it.
type Multi struct {
	outputs []output.Output
}

// New tees to outputs. With none, every call succeeds and does nothing.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

func (m *Multi) Write(ctx context.Context, report model.Report) error {
	return m.each(func(o output.Output) error { return o.Write(ctx, report) })
}

func (m *Multi) Close() error {
	return m.each(output.Output.Close)
}

// each applies fn to every output and joins the failures.
func (m *Multi) each(fn func(output.Output) error) error {
	errs := make([]error, 0, len(m.outputs))
	for _, o := range m.outputs {
		errs = append(errs, fn(o))
	}
	return errors.Join(errs...)
}
