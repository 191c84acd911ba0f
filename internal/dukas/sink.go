package dukas

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/config"
)

// WriteCSV saves ticks in the backtester's quote layout: ts,bid,ask,bid_size,ask_size.
// Feed volumes are in millions; sizes convert to units so depth ratios line up with
// order sizes.
func WriteCSV(path string, ticks []Tick) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ts", "bid", "ask", "bid_size", "ask_size"}); err != nil {
		return err
	}
	for _, t := range ticks {
		rec := []string{
			t.Ts.UTC().Format(time.RFC3339Nano),
			t.Bid.String(),
			t.Ask.String(),
			strconv.FormatFloat(t.BidVolume*1e6, 'g', -1, 64),
			strconv.FormatFloat(t.AskVolume*1e6, 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Warehouse persists ticks into ClickHouse for later runs.
type Warehouse struct {
	conn     driver.Conn
	database string
	table    string
}

// NewWarehouse connects and makes sure the tick table exists.
func NewWarehouse(ctx context.Context, cfg config.ClickHouse) (*Warehouse, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("warehouse: addr is required")
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
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	w := &Warehouse{conn: conn, database: cfg.Database, table: cfg.QuotesTable}
	if w.table == "" {
		w.table = "quotes"
	}
	if err := w.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Warehouse) Close() error { return w.conn.Close() }

// ensureSchema creates the tick table. ReplacingMergeTree keyed on version makes
// re-ingesting the same range idempotent.
func (w *Warehouse) ensureSchema(ctx context.Context) error {
	if err := w.conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", w.database)); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.%s (
			instrument LowCardinality(String),
			ts DateTime64(3),
			bid Float64,
			ask Float64,
			bid_size Float64,
			ask_size Float64,
			version UInt64
		)
		ENGINE = ReplacingMergeTree(version)
		ORDER BY (instrument, ts)
	`, w.database, w.table)
	if err := w.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// InsertTicks writes one decoded batch.
func (w *Warehouse) InsertTicks(ctx context.Context, instrument string, ticks []Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	batch, err := w.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s.%s", w.database, w.table))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	version := uint64(time.Now().UnixNano()) // shared by the batch; ReplacingMergeTree keeps the last
	for _, t := range ticks {
		err := batch.Append(
			instrument,
			t.Ts.UTC(),
			t.Bid.InexactFloat64(),
			t.Ask.InexactFloat64(),
			t.BidVolume*1e6,
			t.AskVolume*1e6,
			version,
		)
		if err != nil {
			return fmt.Errorf("append: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
