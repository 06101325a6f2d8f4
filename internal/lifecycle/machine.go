// Package lifecycle implements the round-phase state machine from
// IDLE → ACTIVE → LOCKED → TRANSITIONING → ACTIVE …
package lifecycle

import (
	"log"
	"sync"
	"time"
)

// State is one of the four round phases.
type State string

const (
	IDLE          State = "IDLE"
	ACTIVE        State = "ACTIVE"
	LOCKED        State = "LOCKED"
	TRANSITIONING State = "TRANSITIONING"
)

// allowed enumerates the legal (from, to) transitions.
var allowed = map[State]map[State]bool{
	IDLE:          {ACTIVE: true},
	ACTIVE:        {LOCKED: true, IDLE: true},
	LOCKED:        {TRANSITIONING: true},
	TRANSITIONING: {ACTIVE: true, IDLE: true},
}

// Transition is one append-only history record.
type Transition struct {
	From      State
	To        State
	Timestamp time.Time
	Context   any
}

// Machine is a thin wrapper enforcing the allowed-transition table. Invalid
// transitions are logged and ignored rather than applied.
type Machine struct {
	mu        sync.Mutex
	current   State
	history   []Transition
	enteredAt time.Time
	visits    map[State]int
	dwell     map[State]time.Duration
}

// New returns a Machine starting in IDLE.
func New() *Machine {
	return &Machine{
		current:   IDLE,
		enteredAt: time.Now(),
		visits:    map[State]int{IDLE: 1},
		dwell:     make(map[State]time.Duration),
	}
}

// Transition attempts to move the machine from its current state to target.
// It reports whether the transition was legal and performed.
func (m *Machine) Transition(target State, context any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	from := m.current
	if !allowed[from][target] {
		log.Printf("lifecycle: rejected illegal transition %s -> %s", from, target)
		return false
	}

	m.dwell[from] += now.Sub(m.enteredAt)
	m.history = append(m.history, Transition{From: from, To: target, Timestamp: now, Context: context})
	m.current = target
	m.enteredAt = now
	m.visits[target]++
	return true
}

// Current returns the machine's current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// History returns a copy of the recorded transitions.
func (m *Machine) History() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}

// VisitCounts returns how many times each state has been entered.
func (m *Machine) VisitCounts() map[State]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[State]int, len(m.visits))
	for k, v := range m.visits {
		out[k] = v
	}
	return out
}

// MeanDwellTime returns the average time spent in each state, including the
// time accrued in the current, not-yet-exited state.
func (m *Machine) MeanDwellTime() map[State]time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := make(map[State]time.Duration, len(m.dwell))
	for k, v := range m.dwell {
		total[k] = v
	}
	total[m.current] += time.Since(m.enteredAt)

	out := make(map[State]time.Duration, len(total))
	for state, sum := range total {
		visits := m.visits[state]
		if visits == 0 {
			continue
		}
		out[state] = sum / time.Duration(visits)
	}
	return out
}
