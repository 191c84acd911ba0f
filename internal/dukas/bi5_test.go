package dukas

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/ulikunitz/xz/lzma"
)

func encodeRecord(buf []byte, ms, askRaw, bidRaw uint32, askVol, bidVol float32) {
	binary.BigEndian.PutUint32(buf[0:4], ms)
	binary.BigEndian.PutUint32(buf[4:8], askRaw)
	binary.BigEndian.PutUint32(buf[8:12], bidRaw)
	binary.BigEndian.PutUint32(buf[12:16], math.Float32bits(askVol))
	binary.BigEndian.PutUint32(buf[16:20], math.Float32bits(bidVol))
}

func TestDecodeBi5(t *testing.T) {
	hour := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	data := make([]byte, 40)
	encodeRecord(data[0:20], 189, 110020, 110000, 1.25, 0.75)
	encodeRecord(data[20:40], 1523, 110035, 110017, 2.5, 3.5)

	ticks, err := DecodeBi5(data, hour)
	if err != nil {
		t.Fatalf("DecodeBi5: %v", err)
	}
	if len(ticks) != 2 {
		t.Fatalf("got %d ticks, want 2", len(ticks))
	}

	first := ticks[0]
	if !first.Ts.Equal(hour.Add(189 * time.Millisecond)) {
		t.Fatalf("ts = %v", first.Ts)
	}
	if first.Bid.String() != "1.1" || first.Ask.String() != "1.1002" {
		t.Fatalf("prices = %s / %s", first.Bid, first.Ask)
	}
	if first.AskVolume != 1.25 || first.BidVolume != 0.75 {
		t.Fatalf("volumes = %v / %v", first.AskVolume, first.BidVolume)
	}

	second := ticks[1]
	if !second.Ts.Equal(hour.Add(1523 * time.Millisecond)) {
		t.Fatalf("ts = %v", second.Ts)
	}
	if second.Bid.String() != "1.10017" || second.Ask.String() != "1.10035" {
		t.Fatalf("prices = %s / %s", second.Bid, second.Ask)
	}
}

func TestDecodeBi5Truncated(t *testing.T) {
	if _, err := DecodeBi5(make([]byte, 30), time.Now()); err == nil {
		t.Fatal("expected error for truncated archive")
	}
}

func TestDecodeBi5Empty(t *testing.T) {
	ticks, err := DecodeBi5(nil, time.Now())
	if err != nil || len(ticks) != 0 {
		t.Fatalf("ticks=%v err=%v, want empty", ticks, err)
	}
}

func TestDecodeBi5ZeroPrice(t *testing.T) {
	data := make([]byte, 20)
	encodeRecord(data, 100, 110020, 0, 1, 1)
	if _, err := DecodeBi5(data, time.Now()); err == nil {
		t.Fatal("expected error for zero price")
	}
}

func TestHourURL(t *testing.T) {
	f, err := NewFetcher("eurusd", "", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	url := f.hourURL(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 7)
	want := "https://datafeed.dukascopy.com/datafeed/EURUSD/2024/00/05/07h_ticks.bi5"
	if url != want {
		t.Fatalf("url = %q, want %q", url, want)
	}
}

func TestNewFetcherRejectsBadPair(t *testing.T) {
	for _, pair := range []string{"", "EUR/USD", "EURUS1", "EURUSDX"} {
		if _, err := NewFetcher(pair, "", zerolog.Nop()); err == nil {
			t.Fatalf("pair %q accepted", pair)
		}
	}
}

func TestFetchHour(t *testing.T) {
	payload := make([]byte, 20)
	encodeRecord(payload, 250, 110020, 110000, 1.25, 0.75)
	var buf bytes.Buffer
	zw, err := lzma.NewWriter(&buf)
	if err != nil {
		t.Fatalf("lzma writer: %v", err)
	}
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("lzma write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("lzma close: %v", err)
	}

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		rw.Write(buf.Bytes())
	}))
	defer srv.Close()

	f, err := NewFetcher("EURUSD", srv.URL, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	ticks, err := f.FetchHour(context.Background(), day, 9)
	if err != nil {
		t.Fatalf("FetchHour: %v", err)
	}
	if gotPath != "/EURUSD/2024/02/04/09h_ticks.bi5" {
		t.Fatalf("requested %q", gotPath)
	}
	if len(ticks) != 1 {
		t.Fatalf("got %d ticks, want 1", len(ticks))
	}
	wantTs := time.Date(2024, 3, 4, 9, 0, 0, 250_000_000, time.UTC)
	if !ticks[0].Ts.Equal(wantTs) {
		t.Fatalf("ts = %v, want %v", ticks[0].Ts, wantTs)
	}
}

func TestFetchHourMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.NotFound(rw, r)
	}))
	defer srv.Close()

	f, err := NewFetcher("EURUSD", srv.URL, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	ticks, err := f.FetchHour(context.Background(), time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), 3)
	if err != nil {
		t.Fatalf("FetchHour: %v", err)
	}
	if ticks != nil {
		t.Fatalf("ticks = %v, want nil for missing hour", ticks)
	}
}
