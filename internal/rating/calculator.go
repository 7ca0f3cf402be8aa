package rating

import (
	"fmt"
	"math"
	"strings"
)

// Outcome is a match result from one player's point of view.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeDraw Outcome = "draw"
	OutcomeLoss Outcome = "loss"
)

// Valid reports whether o is one of win/draw/loss.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeWin, OutcomeDraw, OutcomeLoss:
		return true
	}
	return false
}

// OpponentHuman selects the logistic Elo formula instead of the AI tier table.
const OpponentHuman = "human"

// Deltas holds the fixed rating adjustments for one AI difficulty tier.
type Deltas struct {
	Win  int
	Draw int
	Loss int
}

// Config holds the numeric policy for rating updates.
type Config struct {
	// BaseRating is the rating assigned to players with no record yet.
	BaseRating int
	// HumanKFactor is the K used in the logistic formula for human opponents.
	HumanKFactor int
	// TierDeltas maps lowercase AI difficulty tiers to fixed adjustments.
	TierDeltas map[string]Deltas
}

// DefaultConfig returns the production rating policy.
func DefaultConfig() Config {
	return Config{
		BaseRating:   1200,
		HumanKFactor: 220,
		TierDeltas: map[string]Deltas{
			"easy":       {Win: 10, Draw: -5, Loss: -20},
			"medium":     {Win: 20, Draw: -10, Loss: -15},
			"hard":       {Win: 30, Draw: 5, Loss: -10},
			"impossible": {Win: 40, Draw: 10, Loss: -5},
		},
	}
}

// Calculator computes post-match ratings. It holds only immutable policy and
// is safe for concurrent use.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator with the given policy.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// BaseRating returns the default rating for players without a record.
func (c *Calculator) BaseRating() int {
	return c.cfg.BaseRating
}

// Compute returns the player's new rating after a match.
//
// For AI opponent classes the tier delta table applies: an unrecognized tier
// falls back to medium, an unrecognized outcome leaves the rating unchanged.
// For human opponents the standard logistic formula applies and an
// unrecognized outcome is an error. The result never drops below zero.
func (c *Calculator) Compute(selfRating, referenceRating int, outcome Outcome, opponentClass string) (int, error) {
	if strings.ToLower(opponentClass) != OpponentHuman {
		return c.computeVersusAI(selfRating, outcome, opponentClass), nil
	}

	var actual float64
	switch outcome {
	case OutcomeWin:
		actual = 1
	case OutcomeDraw:
		actual = 0.5
	case OutcomeLoss:
		actual = 0
	default:
		return 0, fmt.Errorf("invalid match outcome %q", outcome)
	}

	expected := 1 / (1 + math.Pow(10, float64(referenceRating-selfRating)/400))
	next := int(math.Round(float64(selfRating) + float64(c.cfg.HumanKFactor)*(actual-expected)))
	return clamp(next), nil
}

func (c *Calculator) computeVersusAI(selfRating int, outcome Outcome, tier string) int {
	deltas, ok := c.cfg.TierDeltas[strings.ToLower(tier)]
	if !ok {
		deltas = c.cfg.TierDeltas["medium"]
	}

	var delta int
	switch Outcome(strings.ToLower(string(outcome))) {
	case OutcomeWin:
		delta = deltas.Win
	case OutcomeDraw:
		delta = deltas.Draw
	case OutcomeLoss:
		delta = deltas.Loss
	default:
		return selfRating
	}

	return clamp(selfRating + delta)
}

func clamp(rating int) int {
	if rating < 0 {
		return 0
	}
	return rating
}
