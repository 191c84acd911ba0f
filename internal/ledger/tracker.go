// Package ledger tracks position, cash, and realized PnL across fills and owns the
// append-only trade history handed read-only to the evaluator after a run.
package ledger

import (
	"math"
	"time"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/execution"
)

// FillRecorder captures fills as they are applied, for persistence outside the run.
type FillRecorder interface {
	Record(execution.Fill)
}

const epsilon = 1e-9

// Position is the running account state for one instrument. Inventory is signed:
// negative means short. AvgEntry is the weighted-average all-in price of the open
// inventory and is meaningless while flat.
type Position struct {
	Inventory float64
	AvgEntry  float64
	Cash      float64
	Realized  float64
}

// Unrealized returns the mark-to-market PnL of the open inventory at the given mid.
func (p Position) Unrealized(mid float64) float64 {
	if math.Abs(p.Inventory) < epsilon {
		return 0
	}
	return (mid - p.AvgEntry) * p.Inventory
}

// Equity returns cash plus open inventory valued at the given mid. It always equals
// initial capital plus realized plus unrealized PnL.
func (p Position) Equity(mid float64) float64 {
	return p.Cash + p.Inventory*mid
}

// Snapshot is a point-in-time view of the account, marked at the given mid.
type Snapshot struct {
	Ts         time.Time `json:"ts"`
	Mid        float64   `json:"mid"`
	Inventory  float64   `json:"inventory"`
	AvgEntry   float64   `json:"avg_entry"`
	Cash       float64   `json:"cash"`
	Realized   float64   `json:"realized"`
	Unrealized float64   `json:"unrealized"`
	Equity     float64   `json:"equity"`
}

// Tracker mutates the position by fills and appends them to the run ledger. A tracker
// is owned by exactly one run goroutine; it is the per-run state object, never shared.
type Tracker struct {
	initialCapital float64
	pos            Position
	ledger         *Ledger
	recorder       FillRecorder
}

// NewTracker constructs a tracker with starting cash. The recorder may be nil.
func NewTracker(initialCapital float64, ledger *Ledger, recorder FillRecorder) *Tracker {
	return &Tracker{
		initialCapital: initialCapital,
		pos:            Position{Cash: initialCapital},
		ledger:         ledger,
		recorder:       recorder,
	}
}

// InitialCapital returns the starting cash used for reconciliation and drawdown.
func (t *Tracker) InitialCapital() float64 { return t.initialCapital }

// Position returns a copy of the current account state.
func (t *Tracker) Position() Position { return t.pos }

// Apply mutates the position by one fill and appends it to the ledger. Increasing
// inventory re-weights the average entry price; reducing or reversing realizes PnL on
// the closed size. Realized PnL never changes on an opening fill.
func (t *Tracker) Apply(fill execution.Fill) {
	delta := fill.SignedSize()
	if math.Abs(delta) < epsilon {
		return
	}
	price := fill.Price
	inv := t.pos.Inventory

	t.pos.Cash -= delta * price

	switch {
	case math.Abs(inv) < epsilon || (inv > 0) == (delta > 0):
		newInv := inv + delta
		if math.Abs(newInv) >= epsilon {
			t.pos.AvgEntry = (t.pos.AvgEntry*inv + price*delta) / newInv
		}
		t.pos.Inventory = newInv

	case math.Abs(delta) <= math.Abs(inv)+epsilon:
		closed := math.Min(math.Abs(delta), math.Abs(inv))
		t.pos.Realized += (price - t.pos.AvgEntry) * closed * sign(inv)
		t.pos.Inventory = inv + delta
		if math.Abs(t.pos.Inventory) < epsilon {
			t.pos.Inventory = 0
			t.pos.AvgEntry = 0
		}

	default:
		// Reversing: the whole old position closes, the remainder opens at the fill price.
		t.pos.Realized += (price - t.pos.AvgEntry) * math.Abs(inv) * sign(inv)
		t.pos.Inventory = inv + delta
		t.pos.AvgEntry = price
	}

	t.ledger.Append(fill)
	if t.recorder != nil {
		t.recorder.Record(fill)
	}
}

// Mark recomputes unrealized PnL at the quote mid without touching realized state.
func (t *Tracker) Mark(mid float64) float64 {
	return t.pos.Unrealized(mid)
}

// TakeSnapshot records and returns the account state marked at the given mid.
func (t *Tracker) TakeSnapshot(ts time.Time, mid float64) Snapshot {
	snap := Snapshot{
		Ts:         ts,
		Mid:        mid,
		Inventory:  t.pos.Inventory,
		AvgEntry:   t.pos.AvgEntry,
		Cash:       t.pos.Cash,
		Realized:   t.pos.Realized,
		Unrealized: t.pos.Unrealized(mid),
		Equity:     t.pos.Equity(mid),
	}
	t.ledger.AppendSnapshot(snap)
	return snap
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
