package strategy

import (
	"math"
	"testing"
)

func TestScaledTargetsProportional(t *testing.T) {
	policy := NewScaled(20000, 50000, 1000)
	delta, _ := policy.Decide(0, sigAt(0.5))
	if math.Abs(delta-10000) > 1e-9 {
		t.Fatalf("expected delta 10000, got %.2f", delta)
	}
}

func TestScaledCapsAtMaxPosition(t *testing.T) {
	policy := NewScaled(20000, 15000, 1000)
	delta, _ := policy.Decide(0, sigAt(2.0))
	if delta != 15000 {
		t.Fatalf("expected cap at 15000, got %.2f", delta)
	}
	delta, _ = policy.Decide(0, sigAt(-3.0))
	if delta != -15000 {
		t.Fatalf("expected cap at -15000, got %.2f", delta)
	}
}

func TestScaledSuppressesDust(t *testing.T) {
	policy := NewScaled(20000, 50000, 1000)
	// Target moves from 10000 to 10400: below min trade, no action.
	if delta, reason := policy.Decide(10000, sigAt(0.52)); delta != 0 || reason != "" {
		t.Fatalf("expected dust suppression, got delta=%.2f reason=%q", delta, reason)
	}
}
