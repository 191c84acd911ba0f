package perf

import (
	"math"
	"time"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
)

// halflifeRegression estimates how fast the signal's predictive power decays. It
// computes the information coefficient per horizon (Pearson correlation of score with
// forward mid log-return over that horizon), then fits ln|IC| against horizon length
// by least squares. Half-life is ln2 over the fitted decay rate.
func halflifeRegression(quotes []market.Quote, signals []market.Signal, horizons []time.Duration) Metric {
	if len(signals) < 3 || len(quotes) < 3 {
		return Undefined("insufficient data for decay fit")
	}
	var hs, lnICs []float64
	for _, h := range horizons {
		if h <= 0 {
			continue
		}
		ic, ok := icAtHorizon(quotes, signals, h)
		if !ok || math.Abs(ic) < 1e-9 {
			continue
		}
		hs = append(hs, h.Seconds())
		lnICs = append(lnICs, math.Log(math.Abs(ic)))
	}
	if len(hs) < 2 {
		return Undefined("insufficient horizons with measurable correlation")
	}
	slope, ok := lsSlope(hs, lnICs)
	if !ok || slope > -1e-9 {
		return Undefined("no positive decay measured")
	}
	return Defined(math.Ln2 / -slope)
}

// icAtHorizon pairs each signal's score with the forward mid log-return over the
// horizon. Both cursors only move forward, so the pass is linear in quotes plus
// signals.
func icAtHorizon(quotes []market.Quote, signals []market.Signal, h time.Duration) (float64, bool) {
	var scores, rets []float64
	base, target := 0, 0
	for _, sig := range signals {
		for base < len(quotes) && quotes[base].Ts.Before(sig.Ts) {
			base++
		}
		if base >= len(quotes) {
			break
		}
		if target < base {
			target = base
		}
		deadline := quotes[base].Ts.Add(h)
		for target+1 < len(quotes) && !quotes[target+1].Ts.After(deadline) {
			target++
		}
		if target <= base {
			continue // no later quote inside the horizon
		}
		m0, m1 := quotes[base].Mid(), quotes[target].Mid()
		if m0 <= 0 || m1 <= 0 {
			continue
		}
		scores = append(scores, sig.Score)
		rets = append(rets, math.Log(m1/m0))
	}
	if len(scores) < 3 {
		return 0, false
	}
	return pearson(scores, rets)
}

// halflifeAutocorrelation fits the decay of the score series' own autocorrelation,
// converting lags to time via the mean signal spacing.
func halflifeAutocorrelation(signals []market.Signal) Metric {
	n := len(signals)
	if n < 8 {
		return Undefined("insufficient signals for autocorrelation fit")
	}
	span := signals[n-1].Ts.Sub(signals[0].Ts)
	if span <= 0 {
		return Undefined("indeterminate signal cadence")
	}
	meanDt := span.Seconds() / float64(n-1)

	scores := make([]float64, n)
	var sum float64
	for i, s := range signals {
		scores[i] = s.Score
		sum += s.Score
	}
	mean := sum / float64(n)
	var denom float64
	for _, x := range scores {
		d := x - mean
		denom += d * d
	}
	if denom < epsilon {
		return Undefined("constant signal, autocorrelation undefined")
	}

	maxLag := n / 4
	if maxLag > 50 {
		maxLag = 50
	}
	if maxLag < 2 {
		maxLag = 2
	}

	var hs, lnACF []float64
	for k := 1; k <= maxLag; k++ {
		var num float64
		for i := 0; i+k < n; i++ {
			num += (scores[i] - mean) * (scores[i+k] - mean)
		}
		rho := num / denom
		if math.Abs(rho) < 1e-9 {
			continue
		}
		hs = append(hs, float64(k)*meanDt)
		lnACF = append(lnACF, math.Log(math.Abs(rho)))
	}
	if len(hs) < 2 {
		return Undefined("insufficient lags with measurable autocorrelation")
	}
	slope, ok := lsSlope(hs, lnACF)
	if !ok || slope > -1e-9 {
		return Undefined("no positive decay measured")
	}
	return Defined(math.Ln2 / -slope)
}

// pearson returns the correlation of two equal-length series, false when either side
// has no variance.
func pearson(xs, ys []float64) (float64, bool) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0, false
	}
	n := float64(len(xs))
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/n, sy/n
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx < epsilon || vy < epsilon {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}

// lsSlope fits y = a + b*x by ordinary least squares and returns b.
func lsSlope(xs, ys []float64) (float64, bool) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0, false
	}
	n := float64(len(xs))
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/n, sy/n
	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - mx
		sxx += dx * dx
		sxy += dx * (ys[i] - my)
	}
	if sxx < epsilon {
		return 0, false
	}
	return sxy / sxx, true
}
