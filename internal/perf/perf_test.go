package perf

import (
	"math"
	"testing"
	"time"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/engine"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/execution"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/ledger"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
)

var perfT0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func resultWithEquity(initial float64, equity ...float64) *engine.Result {
	res := &engine.Result{RunID: "r1", Instrument: "EURUSD", InitialCapital: initial}
	for i, eq := range equity {
		res.Snapshots = append(res.Snapshots, ledger.Snapshot{
			Ts:     perfT0.Add(time.Duration(i) * time.Second),
			Equity: eq,
		})
	}
	return res
}

func perfFill(side execution.Side, size, price float64) execution.Fill {
	return execution.Fill{Side: side, Size: size, Price: price}
}

func TestSharpeUndefinedOnZeroVariance(t *testing.T) {
	res := resultWithEquity(100000, 100000, 100000, 100000, 100000)
	rep, err := Evaluate(res, nil, nil, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if rep.Sharpe.Defined {
		t.Fatalf("sharpe = %+v, want undefined", rep.Sharpe)
	}
	if rep.Sharpe.Note != "zero variance in returns" {
		t.Fatalf("sharpe note = %q", rep.Sharpe.Note)
	}
}

func TestSharpeUndefinedOnTooFewSnapshots(t *testing.T) {
	res := resultWithEquity(100000, 100000, 100100)
	rep, err := Evaluate(res, nil, nil, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if rep.Sharpe.Defined {
		t.Fatalf("sharpe = %+v, want undefined", rep.Sharpe)
	}
	if rep.Sharpe.Note != "insufficient data: fewer than 2 periods" {
		t.Fatalf("sharpe note = %q", rep.Sharpe.Note)
	}
}

func TestSharpeAnnualizesByMedianSpacing(t *testing.T) {
	// Returns 20% then 10% at one-second spacing.
	res := resultWithEquity(100000, 100000, 120000, 132000)
	rep, err := Evaluate(res, nil, nil, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !rep.Sharpe.Defined {
		t.Fatalf("sharpe undefined: %q", rep.Sharpe.Note)
	}
	want := 0.15 / math.Sqrt(0.005) * math.Sqrt(secondsPerYear)
	if math.Abs(rep.Sharpe.Value-want) > 1e-6*want {
		t.Fatalf("sharpe = %v, want %v", rep.Sharpe.Value, want)
	}
}

func TestMaxDrawdown(t *testing.T) {
	res := resultWithEquity(100, 100, 120, 90, 110, 80)
	rep, err := Evaluate(res, nil, nil, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !rep.MaxDrawdown.Defined || !rep.MaxDrawdownAbs.Defined {
		t.Fatalf("drawdown undefined: %+v %+v", rep.MaxDrawdown, rep.MaxDrawdownAbs)
	}
	if math.Abs(rep.MaxDrawdown.Value-40.0/120.0) > 1e-12 {
		t.Fatalf("drawdown = %v, want %v", rep.MaxDrawdown.Value, 40.0/120.0)
	}
	if math.Abs(rep.MaxDrawdownAbs.Value-40) > 1e-12 {
		t.Fatalf("drawdown abs = %v, want 40", rep.MaxDrawdownAbs.Value)
	}
}

func TestMaxDrawdownMonotoneRise(t *testing.T) {
	res := resultWithEquity(100, 100, 105, 111, 118)
	rep, err := Evaluate(res, nil, nil, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !rep.MaxDrawdown.Defined || rep.MaxDrawdown.Value != 0 {
		t.Fatalf("drawdown = %+v, want defined 0", rep.MaxDrawdown)
	}
}

func TestPnLStats(t *testing.T) {
	res := resultWithEquity(100, 100, 110, 95, 105)
	rep, err := Evaluate(res, nil, nil, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	pnl := rep.PnL
	if !pnl.Mean.Defined || math.Abs(pnl.Mean.Value-5.0/3.0) > 1e-12 {
		t.Fatalf("mean = %+v, want 5/3", pnl.Mean)
	}
	if !pnl.Min.Defined || pnl.Min.Value != -15 {
		t.Fatalf("min = %+v, want -15", pnl.Min)
	}
	if !pnl.Max.Defined || pnl.Max.Value != 10 {
		t.Fatalf("max = %+v, want 10", pnl.Max)
	}
	if !pnl.Std.Defined || math.Abs(pnl.Std.Value-math.Sqrt(625.0/3.0)) > 1e-9 {
		t.Fatalf("std = %+v, want sqrt(625/3)", pnl.Std)
	}
	// Deltas {10, -15, 10} skew left by exactly sqrt(3) under the sample formula.
	if !pnl.Skew.Defined || math.Abs(pnl.Skew.Value+math.Sqrt(3)) > 1e-9 {
		t.Fatalf("skew = %+v, want -sqrt(3)", pnl.Skew)
	}
}

func TestTradeStats(t *testing.T) {
	res := resultWithEquity(100000, 100000, 100020, 100010)
	res.Fills = []execution.Fill{
		perfFill(execution.Buy, 10000, 1.1000),
		perfFill(execution.Sell, 10000, 1.1020),
		perfFill(execution.Buy, 10000, 1.1010),
		perfFill(execution.Sell, 10000, 1.1000),
	}
	rep, err := Evaluate(res, nil, nil, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	tr := rep.Trades
	if tr.Wins != 1 || tr.Losses != 1 {
		t.Fatalf("wins=%d losses=%d, want 1 and 1", tr.Wins, tr.Losses)
	}
	if !tr.WinRate.Defined || tr.WinRate.Value != 0.5 {
		t.Fatalf("win rate = %+v, want 0.5", tr.WinRate)
	}
	if !tr.ProfitFactor.Defined || math.Abs(tr.ProfitFactor.Value-2) > 1e-6 {
		t.Fatalf("profit factor = %+v, want 2", tr.ProfitFactor)
	}
}

func TestTradeStatsNoLosses(t *testing.T) {
	res := resultWithEquity(100000, 100000, 100020)
	res.Fills = []execution.Fill{
		perfFill(execution.Buy, 10000, 1.1000),
		perfFill(execution.Sell, 10000, 1.1020),
	}
	rep, err := Evaluate(res, nil, nil, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	tr := rep.Trades
	if tr.Wins != 1 || tr.Losses != 0 {
		t.Fatalf("wins=%d losses=%d, want 1 and 0", tr.Wins, tr.Losses)
	}
	if !tr.WinRate.Defined || tr.WinRate.Value != 1 {
		t.Fatalf("win rate = %+v, want 1", tr.WinRate)
	}
	if tr.ProfitFactor.Defined || tr.ProfitFactor.Note != "no losing trades" {
		t.Fatalf("profit factor = %+v, want undefined", tr.ProfitFactor)
	}
}

func TestEvaluateNoSignalsFlagsInsufficientData(t *testing.T) {
	res := resultWithEquity(100000, 100000, 100000)
	quotes := []market.Quote{
		{Ts: perfT0, Bid: 1.1000, Ask: 1.1002, BidSize: 1e6, AskSize: 1e6},
		{Ts: perfT0.Add(time.Second), Bid: 1.1000, Ask: 1.1002, BidSize: 1e6, AskSize: 1e6},
	}
	rep, err := Evaluate(res, quotes, nil, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if rep.Fills != 0 {
		t.Fatalf("fills = %d, want 0", rep.Fills)
	}
	if rep.Trades.WinRate.Defined || rep.Trades.WinRate.Note != "no closed trades" {
		t.Fatalf("win rate = %+v, want undefined", rep.Trades.WinRate)
	}
	if rep.AlphaHalflife.Defined {
		t.Fatalf("halflife = %+v, want undefined", rep.AlphaHalflife)
	}
	if rep.Sharpe.Defined {
		t.Fatalf("sharpe = %+v, want undefined", rep.Sharpe)
	}
}

func TestEvaluateNoSnapshots(t *testing.T) {
	res := &engine.Result{RunID: "r1", Instrument: "EURUSD", InitialCapital: 100000}
	rep, err := Evaluate(res, nil, nil, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if rep.FinalEquity.Defined || rep.TotalReturn.Defined {
		t.Fatalf("final=%+v return=%+v, want undefined", rep.FinalEquity, rep.TotalReturn)
	}
}

func TestEvaluateTotalReturn(t *testing.T) {
	res := resultWithEquity(100000, 100000, 102000, 104000)
	rep, err := Evaluate(res, nil, nil, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !rep.FinalEquity.Defined || rep.FinalEquity.Value != 104000 {
		t.Fatalf("final equity = %+v, want 104000", rep.FinalEquity)
	}
	if !rep.TotalReturn.Defined || math.Abs(rep.TotalReturn.Value-0.04) > 1e-12 {
		t.Fatalf("total return = %+v, want 0.04", rep.TotalReturn)
	}
}

func TestEvaluateUnknownHalflifeMethod(t *testing.T) {
	res := resultWithEquity(100000, 100000, 100100)
	if _, err := Evaluate(res, nil, nil, Options{HalflifeMethod: "fourier"}); err == nil {
		t.Fatal("expected error for unknown halflife method")
	}
}
