// Package market standardizes the quote and signal payloads shared between data loading, strategy, and execution layers.
package market

import (
	"fmt"
	"time"
)

// Quote models one top-of-book observation for a single instrument.
type Quote struct {
	Ts      time.Time
	Bid     float64
	Ask     float64
	BidSize float64
	AskSize float64
}

// Mid returns the arithmetic midpoint of the quote.
func (q Quote) Mid() float64 { return (q.Bid + q.Ask) / 2 }

// Spread returns the quoted bid/ask spread.
func (q Quote) Spread() float64 { return q.Ask - q.Bid }

// Microprice returns the size-weighted midpoint, falling back to Mid when no depth is displayed.
func (q Quote) Microprice() float64 {
	total := q.BidSize + q.AskSize
	if total <= 0 {
		return q.Mid()
	}
	return (q.Bid*q.AskSize + q.Ask*q.BidSize) / total
}

// Validate checks a single quote for internal consistency.
func (q Quote) Validate() error {
	if q.Ts.IsZero() {
		return fmt.Errorf("zero timestamp")
	}
	if q.Bid <= 0 || q.Ask <= 0 {
		return fmt.Errorf("non-positive price bid=%.6f ask=%.6f", q.Bid, q.Ask)
	}
	if q.Bid > q.Ask {
		return fmt.Errorf("crossed quote bid=%.6f ask=%.6f", q.Bid, q.Ask)
	}
	if q.BidSize < 0 || q.AskSize < 0 {
		return fmt.Errorf("negative size bid_size=%.2f ask_size=%.2f", q.BidSize, q.AskSize)
	}
	return nil
}

// Signal carries one externally computed directional score; positive means long bias, negative short.
type Signal struct {
	Ts    time.Time
	Score float64
}

// IntegrityError marks a malformed record in an input stream. Loading aborts on the
// first one; streams are never repaired in place.
type IntegrityError struct {
	Stream string
	Index  int
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s stream integrity violation at record %d: %s", e.Stream, e.Index, e.Reason)
}

// ValidateQuotes checks per-record sanity plus non-decreasing timestamps across the stream.
func ValidateQuotes(quotes []Quote) error {
	for i, q := range quotes {
		if err := q.Validate(); err != nil {
			return &IntegrityError{Stream: "quote", Index: i, Reason: err.Error()}
		}
		if i > 0 && q.Ts.Before(quotes[i-1].Ts) {
			return &IntegrityError{Stream: "quote", Index: i, Reason: "timestamp went backwards"}
		}
	}
	return nil
}

// ValidateSignals checks that a signal series is time-sorted with no zero timestamps.
func ValidateSignals(signals []Signal) error {
	for i, s := range signals {
		if s.Ts.IsZero() {
			return &IntegrityError{Stream: "signal", Index: i, Reason: "zero timestamp"}
		}
		if i > 0 && s.Ts.Before(signals[i-1].Ts) {
			return &IntegrityError{Stream: "signal", Index: i, Reason: "timestamp went backwards"}
		}
	}
	return nil
}
