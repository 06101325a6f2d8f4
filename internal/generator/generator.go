// Package generator produces arithmetic Questions and validates submitted
// answers. It holds no shared state beyond an internal random source and a
// monotonic counter, and is safe to call concurrently from any context.
package generator

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"quizhub/internal/domain"
)

// OperandRange describes the operand bounds and allowed operators for a difficulty tier.
type OperandRange struct {
	Min       int
	Max       int
	Operators []domain.Operator
}

// defaultRanges holds the operand bounds and operators available per difficulty.
var defaultRanges = map[domain.Difficulty]OperandRange{
	domain.DifficultyEasy: {
		Min:       1,
		Max:       50,
		Operators: []domain.Operator{domain.OperatorAdd, domain.OperatorSubtract},
	},
	domain.DifficultyMedium: {
		Min:       1,
		Max:       100,
		Operators: []domain.Operator{domain.OperatorAdd, domain.OperatorSubtract, domain.OperatorMultiply},
	},
	domain.DifficultyHard: {
		Min:       10,
		Max:       100,
		Operators: []domain.Operator{domain.OperatorAdd, domain.OperatorSubtract, domain.OperatorMultiply},
	},
}

// validateTolerance is the maximum allowed deviation between a submitted and canonical answer.
const validateTolerance = 1e-4

// Generator produces and validates arithmetic Questions. Its only state is
// the random source and the id counter.
type Generator struct {
	mu      sync.Mutex
	rnd     *rand.Rand
	counter uint64
}

// New returns a Generator seeded from the wall clock, matching the seeding
// style used throughout the example pack's caching layers.
func New() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Generate selects two operands and an operator for the given difficulty and
// returns a new Question with a globally unique id.
func (g *Generator) Generate(difficulty domain.Difficulty) domain.Question {
	rng, ok := defaultRanges[difficulty]
	if !ok {
		difficulty = domain.DifficultyMedium
		rng = defaultRanges[difficulty]
	}

	op := g.pickOperator(rng.Operators)
	a, b := g.pickOperands(rng.Min, rng.Max)

	if op == domain.OperatorMultiply {
		capped := rng.Max
		if capped > 20 {
			capped = 20
		}
		if capped < rng.Min {
			capped = rng.Min
		}
		a, b = g.pickOperands(rng.Min, capped)
	}

	var answer int
	switch op {
	case domain.OperatorAdd:
		answer = a + b
	case domain.OperatorSubtract:
		// subtraction answers are never negative.
		if a < b {
			a, b = b, a
		}
		answer = a - b
	case domain.OperatorMultiply:
		answer = a * b
	}

	return domain.Question{
		ID:         g.nextID(),
		Expression: fmt.Sprintf("%d %s %d", a, op, b),
		Answer:     answer,
		Difficulty: difficulty,
		CreatedAt:  time.Now(),
	}
}

// Validate reports whether raw (a string, a number, or nil) represents the
// canonical answer within tolerance. It never fails with an error — any
// unparseable or missing input simply returns false.
func (g *Generator) Validate(raw any, canonical int) bool {
	parsed, ok := parseAnswer(raw)
	if !ok {
		return false
	}
	return math.Abs(parsed-float64(canonical)) < validateTolerance
}

func parseAnswer(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func (g *Generator) pickOperator(operators []domain.Operator) domain.Operator {
	g.mu.Lock()
	defer g.mu.Unlock()
	return operators[g.rnd.Intn(len(operators))]
}

func (g *Generator) pickOperands(min, max int) (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	span := max - min + 1
	a := min + g.rnd.Intn(span)
	b := min + g.rnd.Intn(span)
	return a, b
}

// nextID combines the Generator's monotonic counter with a random suffix so
// identifiers never repeat within a run, even across concurrent callers.
func (g *Generator) nextID() string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("q-%d-%s", n, uuid.NewString()[:8])
}
