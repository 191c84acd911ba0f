package perf

import (
	"math"
	"sort"
	"time"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/engine"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/ledger"
)

const epsilon = 1e-12

const secondsPerYear = 365.25 * 24 * 3600 // calendar-time annualization; FX trades nearly around the clock

// sharpe computes the annualized Sharpe ratio from period returns between snapshots.
// The sampling frequency is inferred from the median snapshot spacing. Zero variance
// is undefined by decision, not an infinity.
func sharpe(equity []float64, times []time.Time) Metric {
	if len(equity) < 3 {
		return Undefined("insufficient data: fewer than 2 periods")
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] <= 0 {
			return Undefined("non-positive equity, returns undefined")
		}
		returns = append(returns, (equity[i]-equity[i-1])/equity[i-1])
	}

	mean, std := meanStd(returns)
	if std < epsilon {
		return Undefined("zero variance in returns")
	}

	spacing := medianSpacing(times)
	if spacing <= 0 {
		return Undefined("indeterminate sampling cadence")
	}
	periodsPerYear := secondsPerYear / spacing.Seconds()
	return Defined(mean / std * math.Sqrt(periodsPerYear))
}

// maxDrawdown returns the largest peak-to-trough decline over the equity curve, as a
// fraction of the peak and in currency units.
func maxDrawdown(equity []float64) (Metric, Metric) {
	if len(equity) < 2 {
		return Undefined("insufficient data: fewer than 2 snapshots"),
			Undefined("insufficient data: fewer than 2 snapshots")
	}
	peak := equity[0]
	var worstFrac, worstAbs float64
	for _, eq := range equity[1:] {
		if eq > peak {
			peak = eq
			continue
		}
		if abs := peak - eq; abs > worstAbs {
			worstAbs = abs
		}
		if peak > 0 {
			if frac := (peak - eq) / peak; frac > worstFrac {
				worstFrac = frac
			}
		}
	}
	return Defined(worstFrac), Defined(worstAbs)
}

// pnlStats summarizes per-period equity changes in currency units.
func pnlStats(equity []float64) PnLStats {
	if len(equity) < 2 {
		insufficient := Undefined("insufficient data: fewer than 2 snapshots")
		return PnLStats{Mean: insufficient, Std: insufficient, Min: insufficient, Max: insufficient, Skew: insufficient}
	}
	deltas := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		deltas = append(deltas, equity[i]-equity[i-1])
	}

	mean, std := meanStd(deltas)
	min, max := deltas[0], deltas[0]
	for _, d := range deltas[1:] {
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}

	stats := PnLStats{
		Mean: Defined(mean),
		Min:  Defined(min),
		Max:  Defined(max),
	}
	if len(deltas) < 2 {
		stats.Std = Undefined("insufficient data: single period")
	} else {
		stats.Std = Defined(std)
	}

	n := float64(len(deltas))
	if len(deltas) < 3 || std < epsilon {
		stats.Skew = Undefined("insufficient data for skew")
	} else {
		var m3 float64
		for _, d := range deltas {
			z := (d - mean) / std
			m3 += z * z * z
		}
		stats.Skew = Defined(n / ((n - 1) * (n - 2)) * m3)
	}
	return stats
}

// tradeStats replays the fill sequence through a fresh tracker and classifies each
// realized-PnL change as a winning or losing close.
func tradeStats(res *engine.Result) TradeStats {
	tracker := ledger.NewTracker(res.InitialCapital, ledger.NewLedger(len(res.Fills)), nil)
	var stats TradeStats
	var grossProfit, grossLoss float64
	prev := 0.0
	for _, f := range res.Fills {
		tracker.Apply(f)
		realized := tracker.Position().Realized
		delta := realized - prev
		prev = realized
		switch {
		case delta > epsilon:
			stats.Wins++
			grossProfit += delta
		case delta < -epsilon:
			stats.Losses++
			grossLoss -= delta
		}
	}

	closed := stats.Wins + stats.Losses
	if closed == 0 {
		stats.WinRate = Undefined("no closed trades")
	} else {
		stats.WinRate = Defined(float64(stats.Wins) / float64(closed))
	}
	if grossLoss < epsilon {
		if grossProfit < epsilon {
			stats.ProfitFactor = Undefined("no closed trades")
		} else {
			stats.ProfitFactor = Undefined("no losing trades")
		}
	} else {
		stats.ProfitFactor = Defined(grossProfit / grossLoss)
	}
	return stats
}

func meanStd(xs []float64) (float64, float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / n
	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}

func medianSpacing(times []time.Time) time.Duration {
	if len(times) < 2 {
		return 0
	}
	gaps := make([]time.Duration, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		gaps = append(gaps, times[i].Sub(times[i-1]))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	return gaps[len(gaps)/2]
}
