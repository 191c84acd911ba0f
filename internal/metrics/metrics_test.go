package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestServeRegistersMetrics(t *testing.T) {
	srv := Serve(":0")
	defer srv.Close()

	QuotesTotal.WithLabelValues("EURUSD").Inc()
	FillsTotal.WithLabelValues("EURUSD", "BUY").Inc()

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	if !found["quotes_processed_total"] {
		t.Fatalf("quotes_processed_total metric not found")
	}
	if !found["fills_total"] {
		t.Fatalf("fills_total metric not found")
	}
}
