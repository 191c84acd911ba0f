// Package engine drives the deterministic tick-by-tick simulation: one quote stream,
// one signal series, one policy, one execution model, one ledger per run.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/execution"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/ledger"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/metrics"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/risk"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/strategy"
)

const epsilon = 1e-9

// ReasonTerminalLiquidation tags the forced close of open inventory at end of data.
const ReasonTerminalLiquidation = "terminal-liquidation"

// Params wires one simulation run. Quotes and Signals are read-only and may be shared
// across parallel runs; everything else is owned by this run alone.
type Params struct {
	Instrument      string
	Quotes          []market.Quote
	Signals         []market.Signal
	Policy          strategy.Policy
	Model           *execution.Model
	Limits          risk.Limits
	InitialCapital  float64
	SnapshotCadence time.Duration
	Recorder        ledger.FillRecorder
	Log             zerolog.Logger
}

// Result is the completed-run artifact handed read-only to the evaluator.
type Result struct {
	RunID           string            `json:"run_id"`
	Instrument      string            `json:"instrument"`
	InitialCapital  float64           `json:"initial_capital"`
	Fills           []execution.Fill  `json:"fills"`
	Snapshots       []ledger.Snapshot `json:"snapshots"`
	Final           ledger.Position   `json:"final"`
	UnfilledOrders  int               `json:"unfilled_orders"`
	QuotesProcessed int               `json:"quotes_processed"`
	SignalsSeen     int               `json:"signals_seen"`
}

// Engine replays a validated quote stream through the policy and execution model.
type Engine struct {
	params  Params
	cadence time.Duration
}

// New validates the streams and wiring. Validation failures are data integrity errors
// and abort before any simulation work.
func New(params Params) (*Engine, error) {
	if len(params.Quotes) == 0 {
		return nil, fmt.Errorf("empty quote stream")
	}
	if err := market.ValidateQuotes(params.Quotes); err != nil {
		return nil, err
	}
	if err := market.ValidateSignals(params.Signals); err != nil {
		return nil, err
	}
	if params.Policy == nil {
		return nil, fmt.Errorf("nil policy")
	}
	if params.Model == nil {
		return nil, fmt.Errorf("nil execution model")
	}
	if params.InitialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %.2f", params.InitialCapital)
	}
	cadence := params.SnapshotCadence
	if cadence < 0 {
		cadence = 0 // snapshot on every quote
	}
	return &Engine{params: params, cadence: cadence}, nil
}

// Run replays the stream to completion. The loop is single-threaded and deterministic:
// identical inputs, configuration, and seed produce an identical ledger. Cancellation
// is checked at quote granularity and aborts the whole run.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	p := e.params
	runID := uuid.NewString()
	log := p.Log.With().Str("run_id", runID).Str("instrument", p.Instrument).Logger()

	led := ledger.NewLedger(256)
	tracker := ledger.NewTracker(p.InitialCapital, led, p.Recorder)
	cursor := market.NewSignalCursor(p.Signals)
	pending := newIntentQueue()

	var seq int64
	var inflight float64 // sum of pending deltas, so decisions see the effective position
	var lastSnap time.Time

	apply := func(intent execution.Intent, q market.Quote) {
		seq++
		fill := p.Model.Execute(seq, intent, q)
		fill.Instrument = p.Instrument
		tracker.Apply(fill)
		metrics.FillsTotal.WithLabelValues(p.Instrument, string(fill.Side)).Inc()
		log.Debug().
			Int64("seq", fill.Seq).
			Str("side", string(fill.Side)).
			Float64("size", fill.Size).
			Float64("px", fill.Price).
			Str("reason", fill.Reason).
			Msg("fill")
	}

	for i, q := range p.Quotes {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("run canceled at quote %d: %w", i, ctx.Err())
		default:
		}

		// Resolve pending intents that became due, at this quote's prices.
		for _, intent := range pending.popDue(q.Ts) {
			inflight -= intent.Delta
			apply(intent, q)
		}

		mid := q.Mid()
		tracker.Mark(mid)

		if sig, ok := cursor.At(q.Ts); ok {
			if sig.Ts.After(q.Ts) {
				return nil, fmt.Errorf("causality violation: signal at %s visible at quote %s", sig.Ts, q.Ts)
			}
			effective := tracker.Position().Inventory + inflight
			delta, reason := p.Policy.Decide(effective, sig)
			if math.Abs(delta) >= epsilon {
				orderNotional := math.Abs(delta) * mid
				targetNotional := math.Abs(effective+delta) * mid
				switch {
				case !p.Limits.AllowOrder(orderNotional):
					log.Warn().Float64("notional", orderNotional).Msg("order notional over limit, skipped")
				case !p.Limits.AllowPosition(targetNotional):
					log.Warn().Float64("notional", targetNotional).Msg("position notional over limit, skipped")
				default:
					latency := p.Model.Latency()
					intent := execution.Intent{
						DecisionTs: q.Ts,
						ExecTs:     q.Ts.Add(latency),
						Delta:      delta,
						Reason:     reason,
					}
					if latency == 0 {
						apply(intent, q)
					} else {
						pending.push(intent)
						inflight += delta
					}
				}
			}
		}

		if lastSnap.IsZero() || !q.Ts.Before(lastSnap.Add(e.cadence)) {
			tracker.TakeSnapshot(q.Ts, mid)
			lastSnap = q.Ts
		}
		metrics.QuotesTotal.WithLabelValues(p.Instrument).Inc()
	}

	// Terminal state: drop what never resolved, then force-close open inventory at the
	// final quote so the run ends flat with all PnL realized.
	final := p.Quotes[len(p.Quotes)-1]
	unfilled := pending.len()
	for _, intent := range pending.drain() {
		metrics.UnfilledTotal.WithLabelValues(p.Instrument).Inc()
		log.Warn().
			Time("decision_ts", intent.DecisionTs).
			Float64("delta", intent.Delta).
			Msg("stream exhausted before execution, order unfilled")
	}

	liquidated := false
	if inv := tracker.Position().Inventory; math.Abs(inv) >= epsilon {
		apply(execution.Intent{
			DecisionTs: final.Ts,
			ExecTs:     final.Ts,
			Delta:      -inv,
			Reason:     ReasonTerminalLiquidation,
		}, final)
		liquidated = true
	}
	if liquidated || !lastSnap.Equal(final.Ts) {
		tracker.TakeSnapshot(final.Ts, final.Mid())
	}

	res := &Result{
		RunID:           runID,
		Instrument:      p.Instrument,
		InitialCapital:  p.InitialCapital,
		Fills:           led.Fills(),
		Snapshots:       led.Snapshots(),
		Final:           tracker.Position(),
		UnfilledOrders:  unfilled,
		QuotesProcessed: len(p.Quotes),
		SignalsSeen:     cursor.Seen(),
	}
	log.Info().
		Int("fills", len(res.Fills)).
		Int("unfilled", res.UnfilledOrders).
		Float64("realized", res.Final.Realized).
		Float64("cash", res.Final.Cash).
		Msg("run complete")
	return res, nil
}
