// Package dukas downloads historical FX tick data from the Dukascopy datafeed. Files
// arrive as LZMA-compressed hourly archives of fixed 20-byte records; prices are
// decoded exactly via scaled decimals before anything touches a float.
package dukas

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/ulikunitz/xz/lzma"
)

const (
	defaultBaseURL = "https://datafeed.dukascopy.com/datafeed"

	// recordSize is the fixed width of one tick: big-endian millisecond offset,
	// ask and bid as price*1e5, then ask and bid volumes as float32 lots.
	recordSize = 20

	// priceScale is the fixed-point denominator Dukascopy uses for majors.
	priceScale = 5
)

// Tick is one decoded Dukascopy record. Volumes stay in the feed's native millions.
type Tick struct {
	Ts        time.Time
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	BidVolume float64
	AskVolume float64
}

// Fetcher pulls hourly tick archives for one currency pair.
type Fetcher struct {
	client  *http.Client
	baseURL string
	pair    string
	log     zerolog.Logger
}

// NewFetcher validates the pair symbol and prepares an HTTP client. An empty baseURL
// selects the public datafeed endpoint.
func NewFetcher(pair, baseURL string, log zerolog.Logger) (*Fetcher, error) {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if len(pair) != 6 {
		return nil, fmt.Errorf("invalid currency pair %q", pair)
	}
	for _, r := range pair {
		if r < 'A' || r > 'Z' {
			return nil, fmt.Errorf("invalid currency pair %q", pair)
		}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Fetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		pair:    pair,
		log:     log,
	}, nil
}

// Pair returns the normalized symbol this fetcher downloads.
func (f *Fetcher) Pair() string { return f.pair }

// hourURL builds the archive path. Dukascopy directories use zero-indexed months.
func (f *Fetcher) hourURL(day time.Time, hour int) string {
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/%02dh_ticks.bi5",
		f.baseURL, f.pair, day.Year(), int(day.Month())-1, day.Day(), hour)
}

// FetchHour downloads and decodes one hour of ticks. Missing hours (market closed,
// data gaps) come back as an empty slice, not an error.
func (f *Fetcher) FetchHour(ctx context.Context, day time.Time, hour int) ([]Tick, error) {
	url := f.hourURL(day, hour)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "fx-microstructure-alpha/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		f.log.Debug().Str("url", url).Msg("no archive for hour")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	zr, err := lzma.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("lzma header %s: %w", url, err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("lzma decompress %s: %w", url, err)
	}

	hourStart := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
	ticks, err := DecodeBi5(data, hourStart)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return ticks, nil
}

// FetchDay downloads all 24 hourly archives for one calendar day.
func (f *Fetcher) FetchDay(ctx context.Context, day time.Time) ([]Tick, error) {
	var out []Tick
	for hour := 0; hour < 24; hour++ {
		ticks, err := f.FetchHour(ctx, day, hour)
		if err != nil {
			return nil, err
		}
		out = append(out, ticks...)
	}
	f.log.Info().Str("pair", f.pair).Str("day", day.Format("2006-01-02")).Int("ticks", len(out)).Msg("downloaded day")
	return out, nil
}

// FetchRange downloads every day in [start, end] inclusive. Both bounds are truncated
// to midnight UTC.
func (f *Fetcher) FetchRange(ctx context.Context, start, end time.Time) ([]Tick, error) {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if end.Before(start) {
		return nil, fmt.Errorf("end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	var out []Tick
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		ticks, err := f.FetchDay(ctx, day)
		if err != nil {
			return nil, err
		}
		out = append(out, ticks...)
	}
	return out, nil
}
