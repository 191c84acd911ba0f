package market

import (
	"errors"
	"testing"
	"time"
)

func TestQuoteDerivedPrices(t *testing.T) {
	q := Quote{Ts: time.Now(), Bid: 1.1000, Ask: 1.1002, BidSize: 3, AskSize: 1}
	if mid := q.Mid(); mid < 1.10009 || mid > 1.10011 {
		t.Fatalf("unexpected mid: %.6f", mid)
	}
	if spread := q.Spread(); spread < 0.00019 || spread > 0.00021 {
		t.Fatalf("unexpected spread: %.6f", spread)
	}
	// Heavier bid should push the microprice toward the ask.
	if mp := q.Microprice(); mp <= q.Mid() {
		t.Fatalf("expected microprice above mid, got %.6f", mp)
	}

	empty := Quote{Ts: time.Now(), Bid: 1.2, Ask: 1.3}
	if mp := empty.Microprice(); mp != empty.Mid() {
		t.Fatalf("expected mid fallback on empty book, got %.6f", mp)
	}
}

func TestQuoteValidate(t *testing.T) {
	now := time.Now()
	cases := map[string]Quote{
		"zero timestamp": {Bid: 1, Ask: 2},
		"zero bid":       {Ts: now, Bid: 0, Ask: 1.1},
		"crossed":        {Ts: now, Bid: 1.2, Ask: 1.1},
		"negative size":  {Ts: now, Bid: 1.1, Ask: 1.2, BidSize: -1},
	}
	for name, q := range cases {
		if err := q.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	good := Quote{Ts: now, Bid: 1.1000, Ask: 1.1001, BidSize: 5, AskSize: 5}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error for valid quote: %v", err)
	}
}

func TestValidateQuotesOrdering(t *testing.T) {
	now := time.Now()
	quotes := []Quote{
		{Ts: now, Bid: 1.1, Ask: 1.2},
		{Ts: now.Add(-time.Millisecond), Bid: 1.1, Ask: 1.2},
	}
	err := ValidateQuotes(quotes)
	if err == nil {
		t.Fatalf("expected ordering violation")
	}
	var integrity *IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected IntegrityError, got %T", err)
	}
	if integrity.Index != 1 {
		t.Fatalf("expected violation at record 1, got %d", integrity.Index)
	}

	// Equal timestamps are allowed.
	quotes[1].Ts = now
	if err := ValidateQuotes(quotes); err != nil {
		t.Fatalf("equal timestamps should pass: %v", err)
	}
}

func TestValidateSignalsOrdering(t *testing.T) {
	now := time.Now()
	signals := []Signal{
		{Ts: now, Score: 0.5},
		{Ts: now.Add(-time.Second), Score: -0.5},
	}
	if err := ValidateSignals(signals); err == nil {
		t.Fatalf("expected ordering violation")
	}
	signals[1].Ts = now.Add(time.Second)
	if err := ValidateSignals(signals); err != nil {
		t.Fatalf("sorted series should pass: %v", err)
	}
}
