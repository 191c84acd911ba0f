package strategy

import (
	"fmt"
	"math"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
)

// Threshold targets a fixed clip long when the score clears the entry threshold, the
// mirrored clip short on the negative side, and flat otherwise. A hysteresis band below
// the entry level keeps the current side while the score decays, cutting churn when the
// score oscillates near the boundary.
type Threshold struct {
	enter     float64
	exit      float64
	orderSize float64
}

// NewThreshold builds a threshold policy from entry level, hysteresis band width, and clip size.
func NewThreshold(threshold, hysteresis, orderSize float64) *Threshold {
	if threshold <= 0 {
		threshold = 0.5
	}
	if hysteresis < 0 {
		hysteresis = 0
	}
	if hysteresis > threshold {
		hysteresis = threshold
	}
	if orderSize <= 0 {
		orderSize = 1
	}
	return &Threshold{enter: threshold, exit: threshold - hysteresis, orderSize: orderSize}
}

// Name returns the identifier for the policy implementation.
func (p *Threshold) Name() string { return "Threshold" }

// Decide maps the score to a target of +clip, -clip, or flat, then returns the delta
// that moves the current position onto that target.
func (p *Threshold) Decide(position float64, sig market.Signal) (float64, string) {
	var target float64
	switch {
	case sig.Score >= p.enter:
		target = p.orderSize
	case sig.Score <= -p.enter:
		target = -p.orderSize
	case position > 0 && sig.Score >= p.exit:
		target = position // inside the band: hold the long
	case position < 0 && sig.Score <= -p.exit:
		target = position // inside the band: hold the short
	}
	delta := target - position
	if math.Abs(delta) < epsilon {
		return 0, ""
	}
	return delta, fmt.Sprintf("threshold score=%.3f target=%.2f", sig.Score, target)
}
