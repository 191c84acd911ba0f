package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
)

// CSVLoader reads quotes and signals from local files. An empty SignalsPath yields an
// empty signal series, which the engine treats as a hold-everything run.
type CSVLoader struct {
	QuotesPath  string
	SignalsPath string
}

func (l *CSVLoader) Quotes(ctx context.Context) ([]market.Quote, error) {
	return ReadQuotesCSV(l.QuotesPath)
}

func (l *CSVLoader) Signals(ctx context.Context) ([]market.Signal, error) {
	if l.SignalsPath == "" {
		return nil, nil
	}
	return ReadSignalsCSV(l.SignalsPath)
}

// ReadQuotesCSV parses a ts,bid,ask,bid_size,ask_size file and validates the series.
func ReadQuotesCSV(path string) ([]market.Quote, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	quotes := make([]market.Quote, 0, len(records))
	for i, rec := range records {
		if i == 0 && looksLikeHeader(rec) {
			continue
		}
		if len(rec) < 5 {
			return nil, fmt.Errorf("%s line %d: want ts,bid,ask,bid_size,ask_size, got %d fields", path, i+1, len(rec))
		}
		ts, err := parseTimestamp(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+1, err)
		}
		var vals [4]float64
		for j := 0; j < 4; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[j+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d field %d: %w", path, i+1, j+2, err)
			}
			vals[j] = v
		}
		quotes = append(quotes, market.Quote{Ts: ts, Bid: vals[0], Ask: vals[1], BidSize: vals[2], AskSize: vals[3]})
	}
	if err := market.ValidateQuotes(quotes); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return quotes, nil
}

// ReadSignalsCSV parses a ts,score file and validates the series.
func ReadSignalsCSV(path string) ([]market.Signal, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	signals := make([]market.Signal, 0, len(records))
	for i, rec := range records {
		if i == 0 && looksLikeHeader(rec) {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("%s line %d: want ts,score, got %d fields", path, i+1, len(rec))
		}
		ts, err := parseTimestamp(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+1, err)
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d field 2: %w", path, i+1, err)
		}
		signals = append(signals, market.Signal{Ts: ts, Score: score})
	}
	if err := market.ValidateSignals(signals); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return signals, nil
}

// readRecords loads all CSV rows, transparently decoding UTF-16 exports (Excel, MT5)
// to UTF-8 when a BOM is present.
func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if b, _ := br.Peek(2); len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
		endian := unicode.LittleEndian
		if b[0] == 0xFE {
			endian = unicode.BigEndian
		}
		br = bufio.NewReader(transform.NewReader(f, unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder()))
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, rec := range records {
		if len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "﻿")
		}
	}
	return records, nil
}

func looksLikeHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, err := parseTimestamp(rec[0])
	return err != nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp accepts RFC3339, space-separated datetimes, and integer unix stamps
// (seconds, milliseconds, or nanoseconds by magnitude). Everything normalizes to UTC.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		switch {
		case n > 1e15:
			return time.Unix(0, n).UTC(), nil
		case n > 1e11:
			return time.UnixMilli(n).UTC(), nil
		default:
			return time.Unix(n, 0).UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
