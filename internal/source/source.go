// Package source loads the immutable quote and signal series a run consumes. Every
// provider returns fully validated, time-ordered slices; streaming happens inside the
// engine, not here.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/config"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
)

const (
	// ProviderCSV reads both series from local CSV files.
	ProviderCSV = "csv"
	// ProviderClickHouse pulls both series from a ClickHouse tick warehouse.
	ProviderClickHouse = "clickhouse"
	// ProviderStub generates a deterministic synthetic series (useful for tests/offline work).
	ProviderStub = "stub"
)

// Loader produces the input series for one run.
type Loader interface {
	Quotes(ctx context.Context) ([]market.Quote, error)
	Signals(ctx context.Context) ([]market.Signal, error)
}

// New constructs a loader backed by the configured provider.
func New(cfg config.Data, seed int64, log zerolog.Logger) (Loader, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case "", ProviderCSV:
		if cfg.QuotesPath == "" {
			return nil, fmt.Errorf("csv source: quotes_path is required")
		}
		return &CSVLoader{QuotesPath: cfg.QuotesPath, SignalsPath: cfg.SignalsPath}, nil
	case ProviderClickHouse:
		return NewClickHouseLoader(cfg.ClickHouse, cfg.Instrument, log)
	case ProviderStub:
		return &StubLoader{Count: cfg.StubQuotes, Seed: seed}, nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Source)
	}
}
