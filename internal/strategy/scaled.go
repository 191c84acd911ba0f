package strategy

import (
	"fmt"
	"math"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
)

// Scaled sizes the target position proportionally to the score, capped at a maximum
// absolute position. Rebalances smaller than the minimum trade size are suppressed so
// tiny score wiggles do not generate dust orders.
type Scaled struct {
	scale       float64
	maxPosition float64
	minTrade    float64
}

// NewScaled builds a score-proportional policy from scale, position cap, and minimum trade size.
func NewScaled(scale, maxPosition, minTrade float64) *Scaled {
	if scale <= 0 {
		scale = 1
	}
	if maxPosition <= 0 {
		maxPosition = scale
	}
	if minTrade < 0 {
		minTrade = 0
	}
	return &Scaled{scale: scale, maxPosition: maxPosition, minTrade: minTrade}
}

// Name returns the identifier for the policy implementation.
func (p *Scaled) Name() string { return "Scaled" }

// Decide targets clamp(score*scale, ±maxPosition) and suppresses sub-minimum deltas.
func (p *Scaled) Decide(position float64, sig market.Signal) (float64, string) {
	target := clamp(sig.Score*p.scale, -p.maxPosition, p.maxPosition)
	delta := target - position
	if math.Abs(delta) < epsilon || math.Abs(delta) < p.minTrade {
		return 0, ""
	}
	return delta, fmt.Sprintf("scaled score=%.3f target=%.2f", sig.Score, target)
}
