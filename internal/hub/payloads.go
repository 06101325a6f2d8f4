package hub

import (
	"time"

	"quizhub/internal/domain"
)

func epochMillis(t time.Time) int64 { return t.UnixMilli() }

func currentQuestionPayload(q domain.Question, now time.Time) map[string]any {
	return map[string]any{
		"question":   q.Expression,
		"questionId": q.ID,
		"difficulty": q.Difficulty,
		"timestamp":  epochMillis(now),
	}
}

func newQuestionPayload(q domain.Question, now time.Time) map[string]any {
	return currentQuestionPayload(q, now)
}

func waitingPayload(now time.Time) map[string]any {
	return map[string]any{
		"message":   "waiting for the next question",
		"timestamp": epochMillis(now),
	}
}

func youWonPayload(q domain.Question, now time.Time) map[string]any {
	return map[string]any{
		"message":       "you won this round",
		"correctAnswer": q.Answer,
		"question":      q.Expression,
		"timestamp":     epochMillis(now),
	}
}

func resultPayload(correct, winner bool, now time.Time) map[string]any {
	message := "wrong answer"
	if correct {
		message = "correct, but someone else answered first"
	}
	return map[string]any{
		"correct":   correct,
		"winner":    winner,
		"message":   message,
		"timestamp": epochMillis(now),
	}
}

func rejectedPayload(reason domain.RejectReason, now time.Time) map[string]any {
	message := map[domain.RejectReason]string{
		domain.RejectQuestionLocked:   "the question is already locked",
		domain.RejectAlreadySubmitted: "you already submitted an answer this round",
		domain.RejectNoQuestion:       "no question is active",
	}[reason]
	return map[string]any{
		"reason":    reason,
		"message":   message,
		"timestamp": epochMillis(now),
	}
}

func submissionErrorPayload(errMsg string, now time.Time) map[string]any {
	return map[string]any{
		"error":     errMsg,
		"message":   errMsg,
		"timestamp": epochMillis(now),
	}
}

func winnerPayload(winnerConnID string, q domain.Question, submittedAt time.Time, nextIn time.Duration, now time.Time) map[string]any {
	return map[string]any{
		"winnerId":       winnerConnID,
		"correctAnswer":  q.Answer,
		"question":       q.Expression,
		"questionId":     q.ID,
		"submissionTime": epochMillis(submittedAt),
		"nextQuestionIn": nextIn.Milliseconds(),
		"timestamp":      epochMillis(now),
	}
}
