package dukas

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/source"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	t0 := time.Date(2024, 3, 4, 9, 0, 0, 189_000_000, time.UTC)
	ticks := []Tick{
		{Ts: t0, Bid: decimal.New(110000, -5), Ask: decimal.New(110020, -5), BidVolume: 0.75, AskVolume: 1.25},
		{Ts: t0.Add(time.Second), Bid: decimal.New(110017, -5), Ask: decimal.New(110035, -5), BidVolume: 2.5, AskVolume: 3.5},
	}
	path := filepath.Join(t.TempDir(), "ticks", "EURUSD.csv")
	if err := WriteCSV(path, ticks); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	quotes, err := source.ReadQuotesCSV(path)
	if err != nil {
		t.Fatalf("ReadQuotesCSV: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(quotes))
	}
	if quotes[0].Bid != 1.1 || quotes[0].Ask != 1.1002 {
		t.Fatalf("first quote = %+v", quotes[0])
	}
	if quotes[0].BidSize != 750000 || quotes[0].AskSize != 1250000 {
		t.Fatalf("first sizes = %v / %v", quotes[0].BidSize, quotes[0].AskSize)
	}
	if !quotes[1].Ts.Equal(t0.Add(time.Second)) {
		t.Fatalf("second ts = %v", quotes[1].Ts)
	}
}
