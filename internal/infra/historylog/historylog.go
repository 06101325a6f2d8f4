// Package historylog defines the round-history sink the Hub reports to after
// every winner declaration. This is additive reporting, not round-state
// persistence: rows are never read back into a round's live state (the
// persistence-across-restarts non-goal binds the live round, not this trail).
package historylog

import (
	"context"
	"time"

	"quizhub/internal/domain"
)

// RoundRecord summarizes one completed round for offline analytics.
type RoundRecord struct {
	QuestionID      string
	Expression      string
	Answer          int
	Difficulty      domain.Difficulty
	WinnerConnID    string
	SubmissionCount int
	StartedAt       time.Time
	LockedAt        time.Time
}

// Recorder persists RoundRecords. Implementations must be best-effort: a
// failure to record history must never affect round outcomes.
type Recorder interface {
	Record(ctx context.Context, rec RoundRecord)
}
