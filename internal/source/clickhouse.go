package source

import (
	"context"
	"fmt"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/config"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
)

// ClickHouseLoader pulls both series from a tick warehouse over the native protocol.
// Rows come back ordered by ts so the validated slices are replay-ready as-is.
type ClickHouseLoader struct {
	conn         driver.Conn
	database     string
	quotesTable  string
	signalsTable string
	instrument   string
	log          zerolog.Logger
}

// NewClickHouseLoader opens a native connection. The caller owns Close.
func NewClickHouseLoader(cfg config.ClickHouse, instrument string, log zerolog.Logger) (*ClickHouseLoader, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("clickhouse source: addr is required")
	}
	if instrument == "" {
		return nil, fmt.Errorf("clickhouse source: instrument is required")
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	l := &ClickHouseLoader{
		conn:         conn,
		database:     cfg.Database,
		quotesTable:  cfg.QuotesTable,
		signalsTable: cfg.SignalsTable,
		instrument:   instrument,
		log:          log,
	}
	if l.quotesTable == "" {
		l.quotesTable = "quotes"
	}
	if l.signalsTable == "" {
		l.signalsTable = "signals"
	}
	return l, nil
}

func (l *ClickHouseLoader) Close() error { return l.conn.Close() }

func (l *ClickHouseLoader) Quotes(ctx context.Context) ([]market.Quote, error) {
	q := fmt.Sprintf(`
SELECT ts, bid, ask, bid_size, ask_size
FROM %s.%s
WHERE instrument = ?
ORDER BY ts`, l.database, l.quotesTable)
	rows, err := l.conn.Query(ctx, q, l.instrument)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	var out []market.Quote
	for rows.Next() {
		var (
			ts                     time.Time
			bid, ask, bidSz, askSz float64
		)
		if err := rows.Scan(&ts, &bid, &ask, &bidSz, &askSz); err != nil {
			return nil, fmt.Errorf("scan quote row %d: %w", len(out), err)
		}
		out = append(out, market.Quote{Ts: ts.UTC(), Bid: bid, Ask: ask, BidSize: bidSz, AskSize: askSz})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read quotes: %w", err)
	}
	if err := market.ValidateQuotes(out); err != nil {
		return nil, err
	}
	l.log.Debug().Int("rows", len(out)).Str("table", l.quotesTable).Msg("loaded quotes from clickhouse")
	return out, nil
}

func (l *ClickHouseLoader) Signals(ctx context.Context) ([]market.Signal, error) {
	q := fmt.Sprintf(`
SELECT ts, score
FROM %s.%s
WHERE instrument = ?
ORDER BY ts`, l.database, l.signalsTable)
	rows, err := l.conn.Query(ctx, q, l.instrument)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []market.Signal
	for rows.Next() {
		var (
			ts    time.Time
			score float64
		)
		if err := rows.Scan(&ts, &score); err != nil {
			return nil, fmt.Errorf("scan signal row %d: %w", len(out), err)
		}
		out = append(out, market.Signal{Ts: ts.UTC(), Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read signals: %w", err)
	}
	if err := market.ValidateSignals(out); err != nil {
		return nil, err
	}
	l.log.Debug().Int("rows", len(out)).Str("table", l.signalsTable).Msg("loaded signals from clickhouse")
	return out, nil
}
