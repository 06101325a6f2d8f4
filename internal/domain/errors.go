package domain

import "errors"

// RejectReason enumerates why RecordSubmission refused an answer.
type RejectReason string

const (
	RejectQuestionLocked   RejectReason = "question-locked"
	RejectAlreadySubmitted RejectReason = "already-submitted"
	RejectNoQuestion       RejectReason = "no-question"
)

var (
	// ErrNegativeGracePeriod is returned by RoundState.SetGracePeriod for a negative duration.
	ErrNegativeGracePeriod = errors.New("grace period must not be negative")
	// ErrHistoryNotConfigured reports that no round history sink was wired.
	// Nothing in this module returns it: the Hub skips history when its
	// recorder is nil.
	ErrHistoryNotConfigured = errors.New("round history sink not configured")
)
