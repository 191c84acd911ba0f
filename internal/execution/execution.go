// Package execution simulates order lifecycle against historical quotes: spread
// crossing, book-depth slippage, and submission latency.
package execution

import (
	"time"
)

// Side enumerates fill directions recorded in the ledger.
type Side string

const (
	// Buy indicates a long-increasing fill.
	Buy Side = "BUY"
	// Sell indicates a short-increasing fill.
	Sell Side = "SELL"
)

// Intent is a request to change the position by Delta units. It is created at decision
// time and resolves against the first quote at or after ExecTs.
type Intent struct {
	DecisionTs time.Time
	ExecTs     time.Time
	Delta      float64 // signed units; positive buys, negative sells
	Reason     string
}

// Fill records one simulated execution. Price is the all-in per-unit price actually
// paid; SpreadCost and SlippageCost decompose its distance from the prevailing mid so
// the ledger reconciles both against fill prices and against mid plus costs.
type Fill struct {
	Seq          int64     `json:"seq"`
	DecisionTs   time.Time `json:"decision_ts"`
	ExecTs       time.Time `json:"exec_ts"`
	Instrument   string    `json:"instrument"`
	Side         Side      `json:"side"`
	Size         float64   `json:"size"`
	Price        float64   `json:"price"`
	Mid          float64   `json:"mid"`
	SpreadCost   float64   `json:"spread_cost"`
	SlippageCost float64   `json:"slippage_cost"`
	Reason       string    `json:"reason"`
}

// Notional returns the absolute cash value exchanged by the fill.
func (f Fill) Notional() float64 { return f.Size * f.Price }

// SignedSize returns the position change: positive for buys, negative for sells.
func (f Fill) SignedSize() float64 {
	if f.Side == Sell {
		return -f.Size
	}
	return f.Size
}
