package memory

import (
	"context"
	"testing"

	"quizhub/internal/domain"
	"quizhub/internal/infra/historylog"
)

func TestRecorderEvictsOldest(t *testing.T) {
	r := New(2)
	ctx := context.Background()
	r.Record(ctx, historylog.RoundRecord{QuestionID: "q1", Difficulty: domain.DifficultyEasy})
	r.Record(ctx, historylog.RoundRecord{QuestionID: "q2", Difficulty: domain.DifficultyEasy})
	r.Record(ctx, historylog.RoundRecord{QuestionID: "q3", Difficulty: domain.DifficultyEasy})

	recent := r.Recent()
	if len(recent) != 2 {
		t.Fatalf("expected 2 retained records, got %d", len(recent))
	}
	if recent[0].QuestionID != "q2" || recent[1].QuestionID != "q3" {
		t.Fatalf("unexpected retained records: %+v", recent)
	}
}
