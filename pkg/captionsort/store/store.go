package store

import (
	"context"
	"time"
)

// Store persists run reports. Captions themselves are never stored here.
type Store interface {
	Close() error

	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// Outcome describes how a run ended.
type Outcome string

const (
	OutcomeWritten    Outcome = "written"
	OutcomeDryRun     Outcome = "dry-run"
	OutcomeDeclined   Outcome = "declined"
	OutcomeUnresolved Outcome = "unresolved"
	OutcomeFailed     Outcome = "failed"
)

// Run is the full report of one run
type Run struct {
	ID         string
	StartedAt  time.Time
	Root       string
	Entries    int
	Written    int
	Threshold  int64
	KeepFirstN int
	Outcome    Outcome

	Counts   []TagCount // count descending
	Banned   []string   // distinct tags removed as banned
	Pruned   []string   // distinct tags removed below threshold
	Unsorted []TagCount // unresolved unsorted tags
}

// TagCount is a tag with its corpus-wide count
type TagCount struct {
	Tag   string
	Count int64
}

// RunSummary is the listing view of a run
type RunSummary struct {
	ID           string
	StartedAt    time.Time
	Root         string
	Entries      int
	Written      int
	Outcome      Outcome
	DistinctTags int
}

// Summary returns the listing view of r.
func (r Run) Summary() RunSummary {
	return RunSummary{
		ID:           r.ID,
		StartedAt:    r.StartedAt,
		Root:         r.Root,
		Entries:      r.Entries,
		Written:      r.Written,
		Outcome:      r.Outcome,
		DistinctTags: len(r.Counts),
	}
}
