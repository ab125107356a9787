package compactor

import (
	"strings"
	"unicode/utf8"
)

// Verbosity controls how much raw log text a report retains.
type Verbosity int

const (
	Minimal  Verbosity = iota // no raw lines, no vocabulary, no traces
	Standard                  // traces with raw lines cut to StandardWidth runes
	Full                      // everything, raw lines untouched
)

// StandardWidth is the rune budget for a raw line at Standard verbosity.
const StandardWidth = 120

// ParseVerbosity maps "minimal", "standard" or "full" to a Verbosity.
// Unknown strings default to Standard.
func ParseVerbosity(s string) Verbosity {
	switch strings.ToLower(s) {
	case "minimal":
		return Minimal
	case "full":
		return Full
	default:
		return Standard
	}
}

func (v Verbosity) String() string {
	switch v {
	case Minimal:
		return "minimal"
	case Full:
		return "full"
	default:
		return "standard"
	}
}

// Compactor shortens raw log lines according to its verbosity.
type Compactor struct {
	Verbosity Verbosity
}

// New creates a Compactor with the given verbosity level.
func New(v Verbosity) *Compactor {
	return &Compactor{Verbosity: v}
}

// Compact returns the raw line as it should appear in a report.
func (c *Compactor) Compact(raw string) string {
	switch c.Verbosity {
	case Minimal:
		return ""
	case Full:
		return raw
	default:
		return truncate(raw, StandardWidth)
	}
}

// truncate cuts s to at most maxRunes runes, appending "..." when it cut.
func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
