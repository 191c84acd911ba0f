package source

import (
	"context"
	"math/rand"
	"time"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
)

// StubLoader synthesizes a seeded EURUSD-like tick series with a genuinely predictive
// signal: each score nudges the mid and the nudge fades, so stub runs produce
// non-trivial fills, PnL, and decay metrics without any external data.
type StubLoader struct {
	Count int
	Seed  int64
}

const (
	stubBaseMid  = 1.1000
	stubCadence  = 100 * time.Millisecond
	defaultCount = 5000
)

var stubEpoch = time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

func (l *StubLoader) Quotes(ctx context.Context) ([]market.Quote, error) {
	quotes, _ := l.series()
	return quotes, nil
}

func (l *StubLoader) Signals(ctx context.Context) ([]market.Signal, error) {
	_, signals := l.series()
	return signals, nil
}

// series regenerates both streams from the seed. Two calls always agree, so Quotes
// and Signals stay mutually consistent without shared state.
func (l *StubLoader) series() ([]market.Quote, []market.Signal) {
	n := l.Count
	if n <= 0 {
		n = defaultCount
	}
	rng := rand.New(rand.NewSource(l.Seed))

	quotes := make([]market.Quote, 0, n)
	signals := make([]market.Signal, 0, n/10+1)
	var impact, walk float64
	for i := 0; i < n; i++ {
		ts := stubEpoch.Add(time.Duration(i) * stubCadence)
		impact -= impact * 0.01
		walk += (rng.Float64() - 0.5) * 2e-5

		mid := stubBaseMid + impact + walk
		half := (0.00008 + rng.Float64()*0.00006) / 2
		quotes = append(quotes, market.Quote{
			Ts:      ts,
			Bid:     mid - half,
			Ask:     mid + half,
			BidSize: 500_000 + rng.Float64()*1_500_000,
			AskSize: 500_000 + rng.Float64()*1_500_000,
		})

		if i%10 == 5 {
			score := rng.Float64()*2 - 1
			signals = append(signals, market.Signal{Ts: ts, Score: score})
			impact += score * 2e-4
		}
	}
	return quotes, signals
}
