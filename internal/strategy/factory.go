// Package strategy maps signal scores and current exposure to desired position changes.
package strategy

import (
	"fmt"
	"strings"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
)

const epsilon = 1e-9

// Policy defines behaviour shared by decision rule implementations. Implementations are
// pure functions of their inputs: no clocks, no randomness, no retained market state.
type Policy interface {
	// Decide returns the signed position change to request given the current position
	// and the latest visible signal, plus a human-readable reason. A zero delta means
	// no action.
	Decide(position float64, sig market.Signal) (float64, string)
	Name() string
}

// Params expresses tunable knobs required by policy constructors.
type Params struct {
	OrderSize   float64
	Threshold   float64
	Hysteresis  float64
	Scale       float64
	MaxPosition float64
	MinTrade    float64
}

// Build returns the policy implementation matching the configured mode. The variant set
// is closed: an unrecognized mode is a configuration error, not a silent default.
func Build(mode string, params Params) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "threshold":
		return NewThreshold(params.Threshold, params.Hysteresis, params.OrderSize), nil
	case "scaled", "score_scaled":
		return NewScaled(params.Scale, params.MaxPosition, params.MinTrade), nil
	default:
		return nil, fmt.Errorf("unknown policy mode %q", mode)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
