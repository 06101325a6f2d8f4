package round

import (
	"sync"
	"testing"
	"time"

	"quizhub/internal/domain"
)

func sampleQuestion() domain.Question {
	return domain.Question{ID: "q1", Expression: "7 + 8", Answer: 15, Difficulty: domain.DifficultyMedium}
}

func TestSetQuestionResetsRound(t *testing.T) {
	s := New()
	s.SetQuestion(sampleQuestion())
	s.RecordSubmission("c1", "15", time.Now())
	s.AttemptWin("c1", true)

	s.SetQuestion(sampleQuestion())

	if s.Locked() {
		t.Fatal("expected unlocked after SetQuestion")
	}
	if _, ok := s.Winner(); ok {
		t.Fatal("expected no winner after SetQuestion")
	}
	if s.HasSubmitted("c1") {
		t.Fatal("expected submissions cleared after SetQuestion")
	}
	if len(s.SubmissionsOrdered()) != 0 {
		t.Fatal("expected empty order list after SetQuestion")
	}
}

func TestRecordSubmissionPreconditionOrder(t *testing.T) {
	s := New()
	if _, reason := s.RecordSubmission("c1", "15", time.Now()); reason != domain.RejectNoQuestion {
		t.Fatalf("expected no-question, got %q", reason)
	}

	s.SetQuestion(sampleQuestion())
	ok, _ := s.RecordSubmission("c1", "15", time.Now())
	if !ok {
		t.Fatal("expected first submission to be accepted")
	}
	if _, reason := s.RecordSubmission("c1", "16", time.Now()); reason != domain.RejectAlreadySubmitted {
		t.Fatalf("expected already-submitted, got %q", reason)
	}

	s.AttemptWin("c1", true)
	if _, reason := s.RecordSubmission("c2", "15", time.Now()); reason != domain.RejectQuestionLocked {
		t.Fatalf("expected question-locked, got %q", reason)
	}
}

func TestAttemptWinSingleWinner(t *testing.T) {
	s := New()
	s.SetQuestion(sampleQuestion())

	const n = 200
	var wg sync.WaitGroup
	wins := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wins[i] = s.AttemptWin("c", true)
		}(i)
	}
	wg.Wait()

	count := 0
	for _, w := range wins {
		if w {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one winner, got %d", count)
	}
}

func TestAttemptWinRejectsIncorrect(t *testing.T) {
	s := New()
	s.SetQuestion(sampleQuestion())
	if s.AttemptWin("c1", false) {
		t.Fatal("expected incorrect submission to never win")
	}
	if s.Locked() {
		t.Fatal("expected round to remain unlocked")
	}
}

func TestSubmissionsOrderedByTimestamp(t *testing.T) {
	s := New()
	s.SetQuestion(sampleQuestion())
	now := time.Now()
	s.RecordSubmission("late", "1", now.Add(10*time.Millisecond))
	s.RecordSubmission("early", "2", now)

	ordered := s.SubmissionsOrdered()
	if len(ordered) != 2 || ordered[0].ConnID != "early" || ordered[1].ConnID != "late" {
		t.Fatalf("unexpected order: %+v", ordered)
	}
}

func TestGracePeriodSubmissionsIsDiagnosticOnly(t *testing.T) {
	s := New()
	if err := s.SetGracePeriod(20 * time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.SetQuestion(sampleQuestion())
	now := time.Now()
	s.RecordSubmission("inside", "1", now.Add(5*time.Millisecond))
	s.RecordSubmission("outside", "2", now.Add(50*time.Millisecond))
	s.RecordSubmission("first", "3", now)

	within := s.GracePeriodSubmissions()
	if len(within) != 2 {
		t.Fatalf("expected 2 submissions within grace period, got %d", len(within))
	}

	// AttemptWin ignores grace period entirely: the second correct submitter
	// wins even though the first submitter is the one within the window.
	s.AttemptWin("outside", true)
	winner, _ := s.Winner()
	if winner != "outside" {
		t.Fatalf("expected grace period to have no bearing on winner selection, got %q", winner)
	}
}

func TestSetGracePeriodRejectsNegative(t *testing.T) {
	s := New()
	if err := s.SetGracePeriod(-time.Millisecond); err == nil {
		t.Fatal("expected error for negative grace period")
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := New()
	s.SetQuestion(sampleQuestion())
	s.RecordSubmission("c1", "15", time.Now())
	s.AttemptWin("c1", true)

	s.Reset()

	if _, ok := s.CurrentQuestion(); ok {
		t.Fatal("expected no question after reset")
	}
	if s.Locked() {
		t.Fatal("expected unlocked after reset")
	}
}
