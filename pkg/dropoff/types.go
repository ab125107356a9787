package dropoff

import "github.com/crimson-sun/dropoff/internal/model"

// Public views of the analysis tables.
type (
	Breakdown    = model.Breakdown
	BreakdownRow = model.BreakdownRow
	Assessment   = model.Assessment
	Trace        = model.Trace
	TraceStep    = model.TraceStep
	VocabEntry   = model.VocabEntry
	Stats        = model.Stats
	Report       = model.Report

	Record          = model.Record
	Sequence        = model.Sequence
	EncodedSequence = model.EncodedSequence
)

// Assessment levels.
const (
	LevelHealthy     = model.LevelHealthy
	LevelCritical    = model.LevelCritical
	LevelWarning     = model.LevelWarning
	LevelDistributed = model.LevelDistributed
)
