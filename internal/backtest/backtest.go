// Package backtest wires configuration into one complete run: load the series, build
// the policy and execution model, drive the engine, evaluate, and persist whatever
// outputs the config asks for. The CLI, the sweep driver, and the HTTP API all go
// through the same pipeline so a given config means the same thing everywhere.
package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/config"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/engine"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/execution"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/ledger"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/metrics"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/perf"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/risk"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/source"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/strategy"
)

// Run executes one backtest described by cfg and returns the raw result plus the
// evaluated report. File outputs (fills JSONL, snapshots CSV, report JSON) are written
// only for paths the config sets.
func Run(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*engine.Result, *perf.Report, error) {
	res, rep, err := run(ctx, cfg, log)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return nil, nil, err
	}
	metrics.RunsTotal.WithLabelValues("ok").Inc()
	return res, rep, nil
}

// RunStreams executes one run over already-loaded series. Sweeps go through here so a
// single load fans out across the whole parameter grid.
func RunStreams(ctx context.Context, cfg *config.Config, quotes []market.Quote, signals []market.Signal, log zerolog.Logger) (*engine.Result, *perf.Report, error) {
	res, rep, err := runStreams(ctx, cfg, quotes, signals, log)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return nil, nil, err
	}
	metrics.RunsTotal.WithLabelValues("ok").Inc()
	return res, rep, nil
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*engine.Result, *perf.Report, error) {
	loader, err := source.New(cfg.Data, cfg.Backtest.Seed, log)
	if err != nil {
		return nil, nil, fmt.Errorf("build source: %w", err)
	}
	quotes, err := loader.Quotes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load quotes: %w", err)
	}
	signals, err := loader.Signals(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load signals: %w", err)
	}
	return runStreams(ctx, cfg, quotes, signals, log)
}

func runStreams(ctx context.Context, cfg *config.Config, quotes []market.Quote, signals []market.Signal, log zerolog.Logger) (*engine.Result, *perf.Report, error) {
	policy, err := strategy.Build(cfg.Policy.Mode, strategy.Params{
		OrderSize:   cfg.Backtest.OrderSize,
		Threshold:   cfg.Policy.Threshold,
		Hysteresis:  cfg.Policy.Hysteresis,
		Scale:       cfg.Policy.Scale,
		MaxPosition: cfg.Policy.MaxPosition,
		MinTrade:    cfg.Policy.MinTrade,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build policy: %w", err)
	}

	model, err := execution.NewModel(execution.Params{
		SlippageModel: cfg.Execution.SlippageModel,
		ImpactCoeff:   cfg.Execution.ImpactCoeff,
		LatencyModel:  cfg.Execution.LatencyModel,
		Latency:       time.Duration(cfg.Execution.LatencyMs) * time.Millisecond,
		LatencyMin:    time.Duration(cfg.Execution.LatencyMinMs) * time.Millisecond,
		LatencyMax:    time.Duration(cfg.Execution.LatencyMaxMs) * time.Millisecond,
		Seed:          cfg.Backtest.Seed,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build execution model: %w", err)
	}

	var recorder ledger.FillRecorder
	if cfg.Backtest.FillsPath != "" {
		jr, err := ledger.NewJSONLRecorder(cfg.Backtest.FillsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open fills recorder: %w", err)
		}
		defer jr.Close()
		recorder = jr
	}

	eng, err := engine.New(engine.Params{
		Instrument: cfg.Data.Instrument,
		Quotes:     quotes,
		Signals:    signals,
		Policy:     policy,
		Model:      model,
		Limits: risk.Limits{
			MaxOrderNotional:    cfg.Risk.MaxOrderNotional,
			MaxPositionNotional: cfg.Risk.MaxPositionNotional,
		},
		InitialCapital:  cfg.Backtest.InitialCapital,
		SnapshotCadence: time.Duration(cfg.Backtest.SnapshotCadenceMs) * time.Millisecond,
		Recorder:        recorder,
		Log:             log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build engine: %w", err)
	}

	res, err := eng.Run(ctx)
	if err != nil {
		return nil, nil, err
	}

	rep, err := perf.Evaluate(res, quotes, signals, perf.Options{
		Horizons:       horizons(cfg.Report.HorizonsMs),
		HalflifeMethod: cfg.Report.HalflifeMethod,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate: %w", err)
	}

	if cfg.Backtest.SnapshotsPath != "" {
		if err := ledger.WriteSnapshotsCSV(cfg.Backtest.SnapshotsPath, res.Snapshots); err != nil {
			return nil, nil, fmt.Errorf("write snapshots: %w", err)
		}
	}
	if cfg.Backtest.ReportPath != "" {
		if err := WriteReportJSON(cfg.Backtest.ReportPath, rep); err != nil {
			return nil, nil, fmt.Errorf("write report: %w", err)
		}
	}
	return res, rep, nil
}

// WriteReportJSON saves an evaluated report, indented for reading.
func WriteReportJSON(path string, rep *perf.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func horizons(ms []int) []time.Duration {
	out := make([]time.Duration, 0, len(ms))
	for _, m := range ms {
		if m > 0 {
			out = append(out, time.Duration(m)*time.Millisecond)
		}
	}
	return out
}
