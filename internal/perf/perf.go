// Package perf turns a completed run into comparable performance metrics. Every
// statistic that can degenerate is represented as a Metric that is explicitly
// undefined with a note, never a numeric placeholder.
package perf

import (
	"fmt"
	"strings"
	"time"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/engine"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
)

const (
	// HalflifeRegression fits an exponential decay to per-horizon information
	// coefficients of the signal against forward mid returns.
	HalflifeRegression = "regression"
	// HalflifeAutocorrelation fits the decay of the signal's own autocorrelation.
	HalflifeAutocorrelation = "autocorrelation"
)

// Metric is a single statistic that may be undefined.
type Metric struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
	Note    string  `json:"note,omitempty"`
}

// Defined wraps a computed value.
func Defined(v float64) Metric { return Metric{Value: v, Defined: true} }

// Undefined marks a metric that could not be computed, with the reason.
func Undefined(note string) Metric { return Metric{Note: note} }

// PnLStats summarizes the distribution of per-period equity changes in currency units.
type PnLStats struct {
	Mean Metric `json:"mean"`
	Std  Metric `json:"std"`
	Min  Metric `json:"min"`
	Max  Metric `json:"max"`
	Skew Metric `json:"skew"`
}

// TradeStats summarizes closing trades reconstructed from the fill sequence.
type TradeStats struct {
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	WinRate      Metric `json:"win_rate"`
	ProfitFactor Metric `json:"profit_factor"`
}

// Report is the evaluator's output: pure data, rendering stays external.
type Report struct {
	RunID           string     `json:"run_id"`
	Instrument      string     `json:"instrument"`
	QuotesProcessed int        `json:"quotes_processed"`
	SignalsSeen     int        `json:"signals_seen"`
	Fills           int        `json:"fills"`
	UnfilledOrders  int        `json:"unfilled_orders"`
	FinalEquity     Metric     `json:"final_equity"`
	TotalReturn     Metric     `json:"total_return"`
	Sharpe          Metric     `json:"sharpe"`
	MaxDrawdown     Metric     `json:"max_drawdown"`
	MaxDrawdownAbs  Metric     `json:"max_drawdown_abs"`
	PnL             PnLStats   `json:"pnl"`
	Trades          TradeStats `json:"trades"`
	HalflifeMethod  string     `json:"halflife_method"`
	AlphaHalflife   Metric     `json:"alpha_halflife_secs"`
}

// Options tunes the evaluator.
type Options struct {
	// Horizons are the forward windows for the IC decay fit. Defaults to a ladder
	// from 100ms to 30s when empty.
	Horizons []time.Duration
	// HalflifeMethod selects regression (IC decay) or autocorrelation.
	HalflifeMethod string
}

var defaultHorizons = []time.Duration{
	100 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	5 * time.Second,
	30 * time.Second,
}

// Evaluate computes the performance report for one completed run. Quotes and signals
// are the same immutable series the run consumed; they feed the alpha decay fit.
// Degenerate inputs produce undefined metrics, never errors; the only error case is an
// unknown half-life method, which is a configuration mistake.
func Evaluate(res *engine.Result, quotes []market.Quote, signals []market.Signal, opts Options) (*Report, error) {
	method := strings.ToLower(strings.TrimSpace(opts.HalflifeMethod))
	if method == "" {
		method = HalflifeRegression
	}
	if method != HalflifeRegression && method != HalflifeAutocorrelation {
		return nil, fmt.Errorf("unknown halflife method %q", opts.HalflifeMethod)
	}
	horizons := opts.Horizons
	if len(horizons) == 0 {
		horizons = defaultHorizons
	}

	report := &Report{
		RunID:           res.RunID,
		Instrument:      res.Instrument,
		QuotesProcessed: res.QuotesProcessed,
		SignalsSeen:     res.SignalsSeen,
		Fills:           len(res.Fills),
		UnfilledOrders:  res.UnfilledOrders,
		HalflifeMethod:  method,
	}

	equity := make([]float64, len(res.Snapshots))
	times := make([]time.Time, len(res.Snapshots))
	for i, s := range res.Snapshots {
		equity[i] = s.Equity
		times[i] = s.Ts
	}

	if len(equity) == 0 {
		report.FinalEquity = Undefined("insufficient data: no snapshots")
		report.TotalReturn = Undefined("insufficient data: no snapshots")
	} else {
		final := equity[len(equity)-1]
		report.FinalEquity = Defined(final)
		if res.InitialCapital > 0 {
			report.TotalReturn = Defined((final - res.InitialCapital) / res.InitialCapital)
		} else {
			report.TotalReturn = Undefined("non-positive initial capital")
		}
	}

	report.Sharpe = sharpe(equity, times)
	report.MaxDrawdown, report.MaxDrawdownAbs = maxDrawdown(equity)
	report.PnL = pnlStats(equity)
	report.Trades = tradeStats(res)

	switch method {
	case HalflifeRegression:
		report.AlphaHalflife = halflifeRegression(quotes, signals, horizons)
	case HalflifeAutocorrelation:
		report.AlphaHalflife = halflifeAutocorrelation(signals)
	}

	return report, nil
}
