// Package hub implements the single-writer orchestrator: the sole mutator
// of the round state, the lifecycle machine, and the participant registry,
// and the dispatcher between the transport and those components.
package hub

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"quizhub/internal/domain"
	"quizhub/internal/generator"
	"quizhub/internal/infra/historylog"
	"quizhub/internal/lifecycle"
	"quizhub/internal/registry"
	"quizhub/internal/round"
	"quizhub/internal/transport"
)

// Mirror receives a copy of every broadcast event for external observers.
// It must never block the Hub's critical section.
type Mirror interface {
	Publish(eventName string, payload any)
}

// Config enumerates the Hub's timing and defaults.
type Config struct {
	WinnerDisplayDuration time.Duration
	PostLockHandoffDelay  time.Duration
	DefaultDifficulty     domain.Difficulty
}

// DefaultConfig returns the Hub's out-of-the-box timing defaults.
func DefaultConfig() Config {
	return Config{
		WinnerDisplayDuration: 3000 * time.Millisecond,
		PostLockHandoffDelay:  100 * time.Millisecond,
		DefaultDifficulty:     domain.DifficultyMedium,
	}
}

// Hub is the sole writer to the round state, the lifecycle machine, and the
// participant registry. Every exported method takes h.mu for its entire
// duration: one exclusive lock guards the whole critical section.
type Hub struct {
	mu sync.Mutex

	cfg       Config
	gen       *generator.Generator
	round     *round.State
	machine   *lifecycle.Machine
	registry  *registry.Registry
	transport transport.Adapter
	history   historylog.Recorder
	mirror    Mirror

	roundStartedAt time.Time
	handoffTimer   *time.Timer
	rotationTimer  *time.Timer
}

// New constructs a Hub. history and mirror may be nil to disable them.
func New(cfg Config, gen *generator.Generator, t transport.Adapter, history historylog.Recorder, mirror Mirror) *Hub {
	return &Hub{
		cfg:       cfg,
		gen:       gen,
		round:     round.New(),
		machine:   lifecycle.New(),
		registry:  registry.New(),
		transport: t,
		history:   history,
		mirror:    mirror,
	}
}

// Start produces the first Question and enters ACTIVE.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.startRoundLocked(h.cfg.DefaultDifficulty)
}

// Connect handles a new participant connection.
func (h *Hub) Connect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	count := h.registry.Add(connID)
	h.broadcastLocked(transport.EventUserCount, count)
	h.sendCurrentOrWaitingLocked(connID)
}

// Disconnect handles a participant leaving. Any submission it made this
// round is retained.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	count := h.registry.Remove(connID)
	h.broadcastLocked(transport.EventUserCount, count)
}

// RequestQuestion replies to connID with the in-flight question, or a
// waiting notice if none is active.
func (h *Hub) RequestQuestion(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendCurrentOrWaitingLocked(connID)
}

// SubmitAnswer handles an inbound submit-answer event.
func (h *Hub) SubmitAnswer(connID string, rawAnswer any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := time.Now()

	if isEmptyAnswer(rawAnswer) {
		h.sendToLocked(connID, transport.EventSubmissionError, submissionErrorPayload("answer is required", t))
		return
	}

	ok, reason := h.round.RecordSubmission(connID, formatAnswer(rawAnswer), t)
	if !ok {
		h.sendToLocked(connID, transport.EventSubmissionRejected, rejectedPayload(reason, t))
		return
	}

	q, hasQuestion := h.round.CurrentQuestion()
	if !hasQuestion {
		// RecordSubmission already guards against this (no-question precedes
		// acceptance), so this is unreachable in practice.
		return
	}

	correct := h.gen.Validate(rawAnswer, q.Answer)
	if h.round.AttemptWin(connID, correct) {
		h.onWinLocked(connID, q, t)
		return
	}

	h.sendToLocked(connID, transport.EventSubmissionResult, resultPayload(correct, false, t))
}

func (h *Hub) sendCurrentOrWaitingLocked(connID string) {
	if q, ok := h.round.CurrentQuestion(); ok {
		h.sendToLocked(connID, transport.EventCurrentQuestion, currentQuestionPayload(q, time.Now()))
		return
	}
	h.sendToLocked(connID, transport.EventWaitingForQuest, waitingPayload(time.Now()))
}

// onWinLocked runs the LOCKED-entry sequence: broadcast, notify the winner,
// record history, and arm the rotation timers. Called with h.mu held.
func (h *Hub) onWinLocked(winnerConnID string, q domain.Question, submittedAt time.Time) {
	h.machine.Transition(lifecycle.LOCKED, map[string]any{
		"winner":   winnerConnID,
		"question": q.ID,
		"answer":   q.Answer,
	})
	lockedAt := time.Now()

	h.broadcastLocked(transport.EventWinnerDeclared, winnerPayload(winnerConnID, q, submittedAt, h.cfg.WinnerDisplayDuration, lockedAt))
	h.sendToLocked(winnerConnID, transport.EventYouWon, youWonPayload(q, lockedAt))

	h.recordHistoryLocked(q, winnerConnID, lockedAt)
	h.armRotationLocked()
}

func (h *Hub) recordHistoryLocked(q domain.Question, winnerConnID string, lockedAt time.Time) {
	if h.history == nil {
		return
	}
	rec := historylog.RoundRecord{
		QuestionID:      q.ID,
		Expression:      q.Expression,
		Answer:          q.Answer,
		Difficulty:      q.Difficulty,
		WinnerConnID:    winnerConnID,
		SubmissionCount: len(h.round.SubmissionsOrdered()),
		StartedAt:       h.roundStartedAt,
		LockedAt:        lockedAt,
	}
	go h.history.Record(context.Background(), rec)
}

// armRotationLocked cancels any pending rotation and schedules the
// LOCKED->TRANSITIONING handoff and the next round's start, both relative to
// the LOCKED moment.
func (h *Hub) armRotationLocked() {
	h.stopTimersLocked()

	h.handoffTimer = time.AfterFunc(h.cfg.PostLockHandoffDelay, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.machine.Transition(lifecycle.TRANSITIONING, nil)
	})

	h.rotationTimer = time.AfterFunc(h.cfg.WinnerDisplayDuration, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.startRoundLocked(h.cfg.DefaultDifficulty)
	})
}

func (h *Hub) stopTimersLocked() {
	if h.handoffTimer != nil {
		h.handoffTimer.Stop()
		h.handoffTimer = nil
	}
	if h.rotationTimer != nil {
		h.rotationTimer.Stop()
		h.rotationTimer = nil
	}
}

// startRoundLocked generates a new Question, installs it, and enters ACTIVE.
// Legal from IDLE (boot) or TRANSITIONING (rotation/forced advance).
func (h *Hub) startRoundLocked(difficulty domain.Difficulty) {
	q := h.gen.Generate(difficulty)
	h.round.SetQuestion(q)
	h.roundStartedAt = time.Now()
	h.machine.Transition(lifecycle.ACTIVE, map[string]any{"questionId": q.ID})
	h.broadcastLocked(transport.EventNewQuestion, newQuestionPayload(q, h.roundStartedAt))
}

func (h *Hub) broadcastLocked(eventName string, payload any) {
	h.transport.Broadcast(eventName, payload)
	if h.mirror != nil {
		h.mirror.Publish(eventName, payload)
	}
}

func (h *Hub) sendToLocked(connID, eventName string, payload any) {
	h.transport.SendTo(connID, eventName, payload)
}

func isEmptyAnswer(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

func formatAnswer(raw any) string {
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%v", raw)
}
