package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/execution"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
)

func fill(seq int64, side execution.Side, size, price float64) execution.Fill {
	return execution.Fill{
		Seq:    seq,
		ExecTs: time.Date(2024, 3, 1, 9, 0, int(seq), 0, time.UTC),
		Side:   side,
		Size:   size,
		Price:  price,
	}
}

func quoteAt(bid, ask float64) market.Quote {
	return market.Quote{
		Ts:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Bid:     bid,
		Ask:     ask,
		BidSize: 1000000,
		AskSize: 1000000,
	}
}

func TestApplyLongLifecycle(t *testing.T) {
	tracker := NewTracker(100000, NewLedger(0), nil)

	tracker.Apply(fill(1, execution.Buy, 10000, 1.1002))
	tracker.Apply(fill(2, execution.Buy, 5000, 1.1008))

	pos := tracker.Position()
	if math.Abs(pos.Inventory-15000) > 1e-9 {
		t.Fatalf("expected inventory 15000, got %.4f", pos.Inventory)
	}
	wantAvg := (1.1002*10000 + 1.1008*5000) / 15000
	if math.Abs(pos.AvgEntry-wantAvg) > 1e-9 {
		t.Fatalf("expected avg entry %.6f, got %.6f", wantAvg, pos.AvgEntry)
	}
	if pos.Realized != 0 {
		t.Fatalf("opening fills must not realize PnL, got %.6f", pos.Realized)
	}

	tracker.Apply(fill(3, execution.Sell, 5000, 1.1010))
	pos = tracker.Position()
	wantRealized := (1.1010 - wantAvg) * 5000
	if math.Abs(pos.Realized-wantRealized) > 1e-6 {
		t.Fatalf("expected realized %.6f, got %.6f", wantRealized, pos.Realized)
	}
	if math.Abs(pos.Inventory-10000) > 1e-9 {
		t.Fatalf("expected inventory 10000 after partial close, got %.4f", pos.Inventory)
	}
	if math.Abs(pos.AvgEntry-wantAvg) > 1e-9 {
		t.Fatalf("partial close must not move avg entry, got %.6f", pos.AvgEntry)
	}
}

func TestApplyShortLifecycle(t *testing.T) {
	tracker := NewTracker(100000, NewLedger(0), nil)

	tracker.Apply(fill(1, execution.Sell, 10000, 1.1000))
	pos := tracker.Position()
	if math.Abs(pos.Inventory+10000) > 1e-9 {
		t.Fatalf("expected inventory -10000, got %.4f", pos.Inventory)
	}
	if math.Abs(pos.AvgEntry-1.1000) > 1e-9 {
		t.Fatalf("expected short entry 1.1000, got %.6f", pos.AvgEntry)
	}
	if math.Abs(pos.Cash-111000) > 1e-6 {
		t.Fatalf("expected cash 111000 after short sale, got %.4f", pos.Cash)
	}

	tracker.Apply(fill(2, execution.Buy, 10000, 1.0990))
	pos = tracker.Position()
	if pos.Inventory != 0 {
		t.Fatalf("expected flat after cover, got %.4f", pos.Inventory)
	}
	if math.Abs(pos.Realized-10) > 1e-6 {
		t.Fatalf("expected realized +10 covering below entry, got %.6f", pos.Realized)
	}
	if math.Abs(pos.Cash-(100000+pos.Realized)) > 1e-6 {
		t.Fatalf("flat cash must equal initial plus realized, got %.4f", pos.Cash)
	}
}

func TestApplyReversal(t *testing.T) {
	tracker := NewTracker(100000, NewLedger(0), nil)

	tracker.Apply(fill(1, execution.Buy, 10000, 1.1000))
	tracker.Apply(fill(2, execution.Sell, 25000, 1.1010))

	pos := tracker.Position()
	if math.Abs(pos.Inventory+15000) > 1e-9 {
		t.Fatalf("expected inventory -15000 after reversal, got %.4f", pos.Inventory)
	}
	if math.Abs(pos.AvgEntry-1.1010) > 1e-9 {
		t.Fatalf("reversal must open the remainder at the fill price, got %.6f", pos.AvgEntry)
	}
	wantRealized := (1.1010 - 1.1000) * 10000
	if math.Abs(pos.Realized-wantRealized) > 1e-6 {
		t.Fatalf("expected realized %.4f on the closed leg, got %.6f", wantRealized, pos.Realized)
	}
}

func TestEquityIdentity(t *testing.T) {
	tracker := NewTracker(50000, NewLedger(0), nil)

	tracker.Apply(fill(1, execution.Buy, 10000, 1.1002))
	tracker.Apply(fill(2, execution.Sell, 4000, 1.1005))
	tracker.Apply(fill(3, execution.Sell, 9000, 1.0998))

	mid := 1.1001
	pos := tracker.Position()
	want := 50000 + pos.Realized + pos.Unrealized(mid)
	if math.Abs(pos.Equity(mid)-want) > 1e-6 {
		t.Fatalf("equity identity broken: equity=%.6f initial+realized+unrealized=%.6f", pos.Equity(mid), want)
	}
}

func TestCashReconciliation(t *testing.T) {
	model, err := execution.NewModel(execution.Params{SlippageModel: execution.SlippageLinear, ImpactCoeff: 0.7})
	if err != nil {
		t.Fatalf("NewModel returned error: %v", err)
	}
	tracker := NewTracker(100000, NewLedger(0), nil)

	orders := []struct {
		bid, ask float64
		delta    float64
	}{
		{1.1000, 1.1002, 12000},
		{1.1003, 1.1005, -5000},
		{1.0999, 1.1001, -7000},
		{1.0997, 1.0999, -6000},
	}
	var fills []execution.Fill
	for i, o := range orders {
		f := model.Execute(int64(i+1), execution.Intent{Delta: o.delta}, quoteAt(o.bid, o.ask))
		tracker.Apply(f)
		fills = append(fills, f)
	}

	// Identity one: cash equals initial minus signed all-in notionals.
	var signedNotional float64
	for _, f := range fills {
		signedNotional += f.SignedSize() * f.Price
	}
	pos := tracker.Position()
	if math.Abs(pos.Cash-(100000-signedNotional)) > 1e-6 {
		t.Fatalf("all-in reconciliation broken: cash=%.6f want=%.6f", pos.Cash, 100000-signedNotional)
	}

	// Identity two: the same cash decomposed as mid notionals plus explicit costs.
	var midNotional, costs float64
	for _, f := range fills {
		midNotional += f.SignedSize() * f.Mid
		costs += f.SpreadCost + f.SlippageCost
	}
	if math.Abs(pos.Cash-(100000-midNotional-costs)) > 1e-6 {
		t.Fatalf("mid-plus-costs reconciliation broken: cash=%.6f want=%.6f", pos.Cash, 100000-midNotional-costs)
	}
}

func TestMarkDoesNotMutate(t *testing.T) {
	tracker := NewTracker(100000, NewLedger(0), nil)
	tracker.Apply(fill(1, execution.Buy, 10000, 1.1002))

	before := tracker.Position()
	_ = tracker.Mark(1.2)
	_ = tracker.Mark(0.9)
	after := tracker.Position()
	if before != after {
		t.Fatalf("Mark mutated position state: %+v vs %+v", before, after)
	}
}

func TestTakeSnapshot(t *testing.T) {
	led := NewLedger(0)
	tracker := NewTracker(100000, led, nil)
	tracker.Apply(fill(1, execution.Buy, 10000, 1.1002))

	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	snap := tracker.TakeSnapshot(ts, 1.1004)
	if snap.Ts != ts {
		t.Fatalf("unexpected snapshot ts: %s", snap.Ts)
	}
	if math.Abs(snap.Unrealized-(1.1004-1.1002)*10000) > 1e-6 {
		t.Fatalf("unexpected unrealized: %.6f", snap.Unrealized)
	}
	if math.Abs(snap.Equity-(snap.Cash+snap.Inventory*snap.Mid)) > 1e-9 {
		t.Fatalf("snapshot equity inconsistent")
	}
	if len(led.Snapshots()) != 1 {
		t.Fatalf("expected snapshot appended to ledger")
	}
}
