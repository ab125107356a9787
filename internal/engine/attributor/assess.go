package attributor

import (
	"fmt"
	"strings"

	"github.com/crimson-sun/dropoff/internal/model"
)

// Thresholds set the concentration levels used by Assess. A top step above
// CriticalAbove percent is critical; from WarningFrom up to CriticalAbove it
// is a warning.
type Thresholds struct {
	CriticalAbove float64
	WarningFrom   float64
	// Hints maps a step-name fragment to a suggested line of inquiry.
	Hints map[string]string
}

// DefaultThresholds returns the standard triage levels and hints.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalAbove: 50,
		WarningFrom:   30,
		Hints: map[string]string{
			"UseCase_AuthUser":      "High abandonment during Auth. Check SMS gateway latency or UI glitches on Login.",
			"UseCase_CheckDelivery": "Logistics API might be timing out or rejecting valid addresses.",
		},
	}
}

// Assess classifies the dominant failure mode of b.
func Assess(b model.Breakdown, th Thresholds) model.Assessment {
	top, ok := b.Top()
	if !ok {
		return model.Assessment{Level: model.LevelHealthy, Message: "No failures detected."}
	}

	a := model.Assessment{
		Step:       top.Step,
		Percentage: top.Percentage,
		Hint:       hintFor(top.Step, th.Hints),
	}
	switch {
	case top.Percentage > th.CriticalAbove:
		a.Level = model.LevelCritical
		a.Message = fmt.Sprintf("CRITICAL: %.1f%% of failures stop at %q.", top.Percentage, top.Step)
	case top.Percentage >= th.WarningFrom:
		a.Level = model.LevelWarning
		a.Message = fmt.Sprintf("Most failures (%.1f%%) occur at %q. Investigate this step.", top.Percentage, top.Step)
	default:
		a.Level = model.LevelDistributed
		a.Message = fmt.Sprintf("Failures are distributed; the top step %q accounts for only %.1f%%.", top.Step, top.Percentage)
	}
	return a
}

// hintFor picks the hint whose key is the longest fragment of step, so the
// choice does not depend on map iteration order.
func hintFor(step string, hints map[string]string) string {
	best, found := "", false
	for k := range hints {
		if !strings.Contains(step, k) {
			continue
		}
		if !found || len(k) > len(best) || (len(k) == len(best) && k < best) {
			best, found = k, true
		}
	}
	if !found {
		return ""
	}
	return hints[best]
}
