// Package round holds the per-round mutable state: the active Question,
// submissions received for it, and the lock that elects a single winner.
package round

import (
	"sort"
	"sync"
	"time"

	"quizhub/internal/domain"
)

const defaultGracePeriod = 100 * time.Millisecond

// orderedEntry records the arrival order of a submission.
type orderedEntry struct {
	connID    string
	timestamp time.Time
}

// State is the mutable heart of a round. All access is guarded by mu; callers
// never observe a partially-updated round.
type State struct {
	mu sync.Mutex

	question    *domain.Question
	submissions map[string]domain.Submission
	order       []orderedEntry
	locked      bool
	winner      string
	hasWinner   bool
	gracePeriod time.Duration
}

// New returns an empty round with the default grace period.
func New() *State {
	return &State{
		submissions: make(map[string]domain.Submission),
		gracePeriod: defaultGracePeriod,
	}
}

// SetQuestion atomically installs q and clears all per-round state: no
// question carries submissions, a lock, or a winner from the one before it.
func (s *State) SetQuestion(q domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.question = &q
	s.submissions = make(map[string]domain.Submission)
	s.order = nil
	s.locked = false
	s.winner = ""
	s.hasWinner = false
}

// RecordSubmission inserts a Submission for connID if the round accepts it.
// Preconditions are checked in a fixed order: locked,
// then duplicate, then no-question.
func (s *State) RecordSubmission(connID, rawAnswer string, tServer time.Time) (ok bool, reason domain.RejectReason) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return false, domain.RejectQuestionLocked
	}
	if _, dup := s.submissions[connID]; dup {
		return false, domain.RejectAlreadySubmitted
	}
	if s.question == nil {
		return false, domain.RejectNoQuestion
	}

	s.submissions[connID] = domain.Submission{
		ConnID:    connID,
		RawAnswer: rawAnswer,
		Timestamp: tServer,
	}
	s.order = append(s.order, orderedEntry{connID: connID, timestamp: tServer})
	return true, ""
}

// AttemptWin is the critical section: it is the single
// indivisible check-and-set that elects a winner. It returns false whenever
// the round is already locked or the submission was incorrect.
func (s *State) AttemptWin(connID string, isCorrect bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return false
	}
	if !isCorrect {
		return false
	}
	s.locked = true
	s.winner = connID
	s.hasWinner = true
	return true
}

// CurrentQuestion returns the active Question, if any.
func (s *State) CurrentQuestion() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.question == nil {
		return domain.Question{}, false
	}
	return *s.question, true
}

// HasSubmitted reports whether connID already has a Submission this round.
func (s *State) HasSubmitted(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.submissions[connID]
	return ok
}

// Submission returns the recorded Submission for connID, if any.
func (s *State) Submission(connID string) (domain.Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[connID]
	return sub, ok
}

// Winner returns the winning connection id, if one has been elected.
func (s *State) Winner() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner, s.hasWinner
}

// Locked reports whether the round has been won.
func (s *State) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// SubmissionsOrdered returns submissions sorted by timestamp ascending, ties
// broken by insertion order.
func (s *State) SubmissionsOrdered() []domain.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderedLocked(s.order)
}

// GracePeriodSubmissions returns the prefix of the ordered submissions whose
// timestamps lie within firstTimestamp+gracePeriod inclusive. Diagnostic
// only — never consulted by AttemptWin.
func (s *State) GracePeriodSubmissions() []domain.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	ordered := s.orderedLocked(s.order)
	if len(ordered) == 0 {
		return nil
	}
	deadline := ordered[0].Timestamp.Add(s.gracePeriod)
	cut := len(ordered)
	for i, sub := range ordered {
		if sub.Timestamp.After(deadline) {
			cut = i
			break
		}
	}
	return ordered[:cut]
}

func (s *State) orderedLocked(entries []orderedEntry) []domain.Submission {
	sorted := make([]orderedEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].timestamp.Before(sorted[j].timestamp)
	})
	out := make([]domain.Submission, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, s.submissions[e.connID])
	}
	return out
}

// Reset returns the round to a fully empty state.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.question = nil
	s.submissions = make(map[string]domain.Submission)
	s.order = nil
	s.locked = false
	s.winner = ""
	s.hasWinner = false
}

// SetGracePeriod configures the diagnostic grace period. Negative durations are rejected.
func (s *State) SetGracePeriod(d time.Duration) error {
	if d < 0 {
		return domain.ErrNegativeGracePeriod
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gracePeriod = d
	return nil
}
