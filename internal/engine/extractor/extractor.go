package extractor

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/crimson-sun/dropoff/internal/model"
)

const timestampLayout = "2006-01-02 15:04:05"

// Config controls which surface forms the extractor recognizes.
type Config struct {
	EventPrefixes   []string // e.g. "UseCase_", "Screen_"
	UnknownEvent    string
	Severities      []string // closed set of bracketed markers, e.g. "INFO"
	DefaultSeverity string
	Location        *time.Location // zone for bracketed timestamps; nil means UTC
	Now             func() time.Time
}

// DefaultConfig returns the markers used by the order workflow logs.
func DefaultConfig() Config {
	return Config{
		EventPrefixes:   []string{"UseCase_", "Screen_"},
		UnknownEvent:    "UnknownEvent",
		Severities:      []string{"INFO", "WARN", "ERROR"},
		DefaultSeverity: "INFO",
		Location:        time.UTC,
		Now:             time.Now,
	}
}

// matcher looks for a single field in a cleaned line. ok is false on no match.
type matcher func(line string) (value string, ok bool)

// Extractor turns raw log lines into structured records. It never fails:
// every field has a fallback. Safe for concurrent use.
type Extractor struct {
	cfg       Config
	timestamp matcher
	event     matcher
	severity  matcher
	txn       []matcher // tried in order, first hit wins
}

// New creates an Extractor. Empty Config fields fall back to DefaultConfig.
func New(cfg Config) *Extractor {
	def := DefaultConfig()
	if len(cfg.EventPrefixes) == 0 {
		cfg.EventPrefixes = def.EventPrefixes
	}
	if cfg.UnknownEvent == "" {
		cfg.UnknownEvent = def.UnknownEvent
	}
	if len(cfg.Severities) == 0 {
		cfg.Severities = def.Severities
	}
	if cfg.DefaultSeverity == "" {
		cfg.DefaultSeverity = def.DefaultSeverity
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}

	return &Extractor{
		cfg:       cfg,
		timestamp: submatch(regexp.MustCompile(`\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]`)),
		event:     whole(regexp.MustCompile(`(?:` + alternation(cfg.EventPrefixes) + `)\w+`)),
		severity:  submatch(regexp.MustCompile(`\[(` + alternation(cfg.Severities) + `)\]`)),
		txn: []matcher{
			submatch(regexp.MustCompile(`Order #?(\d+)`)),
			submatch(regexp.MustCompile(`<Order>(\d+)`)),
			submatch(regexp.MustCompile(`order_id\W+(\d+)`)),
		},
	}
}

// Extract parses one raw line into a Record.
func (e *Extractor) Extract(raw string) model.Record {
	line := clean(raw)
	rec := model.Record{
		Event:    e.cfg.UnknownEvent,
		Severity: e.cfg.DefaultSeverity,
		Raw:      raw,
	}

	if v, ok := e.timestamp(line); ok {
		if ts, err := time.ParseInLocation(timestampLayout, v, e.cfg.Location); err == nil {
			rec.Timestamp = ts
			rec.TimestampFound = true
		}
	}
	if !rec.TimestampFound {
		rec.Timestamp = e.cfg.Now()
	}

	if v, ok := e.event(line); ok {
		rec.Event = v
	}
	if v, ok := e.severity(line); ok {
		rec.Severity = v
	}

	for _, m := range e.txn {
		v, ok := m(line)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			// Out of int64 range; try the next surface form.
			continue
		}
		rec.TransactionID = id
		rec.HasTransactionID = true
		break
	}

	return rec
}

// ExtractAll extracts every line, preserving input order. Lines are split
// across up to workers goroutines; workers <= 1 runs inline.
func (e *Extractor) ExtractAll(ctx context.Context, lines []string, workers int) ([]model.Record, error) {
	out := make([]model.Record, len(lines))
	if workers <= 1 || len(lines) < 2*workers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, l := range lines {
			out[i] = e.Extract(l)
		}
		return out, nil
	}

	chunk := (len(lines) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(lines); start += chunk {
		start, end := start, min(start+chunk, len(lines))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i == start || i%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				out[i] = e.Extract(lines[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func submatch(re *regexp.Regexp) matcher {
	return func(line string) (string, bool) {
		m := re.FindStringSubmatch(line)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
}

func whole(re *regexp.Regexp) matcher {
	return func(line string) (string, bool) {
		m := re.FindString(line)
		return m, m != ""
	}
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// clean applies NFC normalization and drops control characters so that
// visually identical markers match the same patterns.
func clean(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case r < 0x20 || r == 0x7f || r == 0xFFFD:
			return -1
		}
		return r
	}, s)
}
