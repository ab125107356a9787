// Package synthetic generates legacy-style order logs with a known outcome
// per order. Text, XML and JSON payload formats are mixed line by line.
package synthetic

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/crimson-sun/dropoff/internal/source"
)

// HappyPath is the event sequence a successful order follows.
var HappyPath = []string{
	"Screen_Login",
	"UseCase_AuthUser",
	"Screen_Dashboard",
	"UseCase_CheckCustomerEligibility",
	"Screen_ProductSelect",
	"UseCase_CheckDelivery",
	"Screen_Review",
	"UseCase_SubmitOrder",
	"Screen_S14",
}

const (
	// FirstOrderID is the transaction id of the first generated order.
	FirstOrderID = 1000
	failureRate  = 0.2
	tsLayout     = "2006-01-02 15:04:05"
)

// BaseTime anchors generated timestamps so runs with the same seed are identical.
var BaseTime = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func init() {
	source.Register("synthetic", func() source.Source {
		return &Source{}
	})
}

// Source generates cfg.Orders orders from cfg.Seed.
type Source struct{}

func (s *Source) Lines(ctx context.Context, cfg source.Config) ([]string, error) {
	if cfg.Orders <= 0 {
		return nil, fmt.Errorf("synthetic source: orders must be positive, got %d", cfg.Orders)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g := New(cfg.Seed)
	return g.Generate(cfg.Orders), nil
}

// Outcome records what the generator decided for one order.
type Outcome struct {
	OrderID   int64
	Succeeded bool
	Steps     int // happy path steps emitted
}

// Generator produces order logs from a seeded random source.
type Generator struct {
	rng      *rand.Rand
	outcomes []Outcome
}

// New returns a Generator seeded with seed.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Outcomes returns the decisions made by the last Generate call.
func (g *Generator) Outcomes() []Outcome { return g.outcomes }

// Generate returns the raw log lines of n orders. About one order in five
// stops after a random step short of Screen_S14 and ends with an ERROR line.
func (g *Generator) Generate(n int) []string {
	g.outcomes = make([]Outcome, 0, n)
	var lines []string
	for i := 0; i < n; i++ {
		id := int64(FirstOrderID + i)
		ok := g.rng.Float64() >= failureRate
		cutoff := len(HappyPath)
		if !ok {
			cutoff = 1 + g.rng.Intn(len(HappyPath)-1)
		}

		ts := BaseTime.Add(time.Duration(i) * 5 * time.Minute)
		for _, step := range HappyPath[:cutoff] {
			ts = ts.Add(time.Duration(1+g.rng.Intn(10)) * time.Second)
			lines = append(lines, g.line(ts, step, id))
		}
		if !ok {
			ts = ts.Add(2 * time.Second)
			lines = append(lines, fmt.Sprintf("[%s] [ERROR] [System] Order #%d failed to transition. Logic Timeout.",
				ts.Format(tsLayout), id))
		}
		g.outcomes = append(g.outcomes, Outcome{OrderID: id, Succeeded: ok, Steps: cutoff})
	}
	return lines
}

func (g *Generator) line(ts time.Time, step string, id int64) string {
	stamp := ts.Format(tsLayout)
	switch g.rng.Intn(3) {
	case 0:
		return fmt.Sprintf("[%s] [INFO] [Thread-%d] User executing %s for Order #%d. Processing...",
			stamp, 1+g.rng.Intn(9), step, id)
	case 1:
		return fmt.Sprintf("[%s] [INFO] [Backend] TraceID: %d. Running %s. Payload: <Order>%d</Order><State>Active</State>.",
			stamp, 900+g.rng.Intn(100), step, id)
	default:
		return fmt.Sprintf("[%s] [INFO] [API] Context: {'action': '%s', 'order_id': %d, 'meta': 'retry_0'}",
			stamp, step, id)
	}
}
