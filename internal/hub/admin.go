package hub

import (
	"time"

	"quizhub/internal/domain"
	"quizhub/internal/lifecycle"
)

// Snapshot is the shape returned by GetSnapshot for administrative tooling.
type Snapshot struct {
	Round   RoundSnapshot
	Stats   Stats
	Machine MachineSnapshot
}

// RoundSnapshot describes the current round.
type RoundSnapshot struct {
	Question        *domain.Question
	Locked          bool
	Winner          string
	HasWinner       bool
	SubmissionCount int
}

// Stats describes process-wide counters.
type Stats struct {
	OnlineCount int
}

// MachineSnapshot describes the lifecycle machine's diagnostics.
type MachineSnapshot struct {
	Current       lifecycle.State
	VisitCounts   map[lifecycle.State]int
	MeanDwellTime map[lifecycle.State]time.Duration
}

// ForceNewQuestion is an administrative escape hatch: it advances straight
// to a new round regardless of whether anyone has won the current one.
// If difficulty is nil, the Hub's configured default is used.
func (h *Hub) ForceNewQuestion(difficulty *domain.Difficulty) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopTimersLocked()
	h.advanceToTransitionableLocked("forced")

	diff := h.cfg.DefaultDifficulty
	if difficulty != nil {
		diff = *difficulty
	}
	h.startRoundLocked(diff)
}

// ResetRound clears the round and returns the lifecycle machine to IDLE
// without issuing a new question.
func (h *Hub) ResetRound() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopTimersLocked()
	h.round.Reset()
	h.advanceToTransitionableLocked("reset")
	if h.machine.Current() != lifecycle.IDLE {
		h.machine.Transition(lifecycle.IDLE, map[string]any{"reason": "reset"})
	}
}

// advanceToTransitionableLocked walks the lifecycle machine along legal
// edges until it is in a state from which ACTIVE (or IDLE) is reachable,
// never introducing a transition outside the allowed table.
func (h *Hub) advanceToTransitionableLocked(reason string) {
	switch h.machine.Current() {
	case lifecycle.ACTIVE:
		h.machine.Transition(lifecycle.IDLE, map[string]any{"reason": reason})
	case lifecycle.LOCKED:
		h.machine.Transition(lifecycle.TRANSITIONING, map[string]any{"reason": reason})
	}
}

// GetSnapshot returns a point-in-time view of the round, stats, and lifecycle machine.
func (h *Hub) GetSnapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	var questionPtr *domain.Question
	if q, ok := h.round.CurrentQuestion(); ok {
		questionPtr = &q
	}
	winner, hasWinner := h.round.Winner()

	return Snapshot{
		Round: RoundSnapshot{
			Question:        questionPtr,
			Locked:          h.round.Locked(),
			Winner:          winner,
			HasWinner:       hasWinner,
			SubmissionCount: len(h.round.SubmissionsOrdered()),
		},
		Stats: Stats{OnlineCount: h.registry.Count()},
		Machine: MachineSnapshot{
			Current:       h.machine.Current(),
			VisitCounts:   h.machine.VisitCounts(),
			MeanDwellTime: h.machine.MeanDwellTime(),
		},
	}
}
