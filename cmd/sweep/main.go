// Binary sweep fans one loaded data set out over a grid of policy thresholds and
// impact coefficients on a bounded worker pool, then writes a JSON summary in grid
// order so repeated sweeps diff cleanly.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/backtest"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/config"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/perf"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/source"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/util"
)

type cell struct {
	Threshold   float64     `json:"threshold"`
	ImpactCoeff float64     `json:"impact_coeff"`
	RunID       string      `json:"run_id,omitempty"`
	Fills       int         `json:"fills"`
	Unfilled    int         `json:"unfilled_orders"`
	FinalEquity perf.Metric `json:"final_equity"`
	TotalReturn perf.Metric `json:"total_return"`
	Sharpe      perf.Metric `json:"sharpe"`
	MaxDrawdown perf.Metric `json:"max_drawdown"`
	Err         string      `json:"error,omitempty"`
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration")
	outPath := flag.String("out", "sweep_results.json", "where to write the summary")
	flag.Parse()

	_ = godotenv.Load() // best-effort

	log := util.NewLogger("info")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	config.OverlayEnv(cfg)
	log = util.NewLogger(cfg.App.LogLevel)

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loader, err := source.New(cfg.Data, cfg.Backtest.Seed, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build source")
	}
	quotes, err := loader.Quotes(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load quotes")
	}
	signals, err := loader.Signals(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load signals")
	}
	log.Info().Int("quotes", len(quotes)).Int("signals", len(signals)).Msg("streams loaded once for the whole grid")

	thresholds := cfg.Sweep.Thresholds
	if len(thresholds) == 0 {
		thresholds = []float64{cfg.Policy.Threshold}
	}
	coeffs := cfg.Sweep.ImpactCoeffs
	if len(coeffs) == 0 {
		coeffs = []float64{cfg.Execution.ImpactCoeff}
	}

	type job struct {
		idx       int
		threshold float64
		coeff     float64
	}
	jobs := make([]job, 0, len(thresholds)*len(coeffs))
	for _, th := range thresholds {
		for _, co := range coeffs {
			jobs = append(jobs, job{idx: len(jobs), threshold: th, coeff: co})
		}
	}

	workers := cfg.Sweep.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	// Each cell owns its index, so workers never contend on the results slice.
	results := make([]cell, len(jobs))
	queue := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			wlog := log.With().Int("worker", worker).Logger()
			for jb := range queue {
				results[jb.idx] = runCell(ctx, cfg, quotes, signals, jb.threshold, jb.coeff, wlog)
			}
		}(w)
	}
	for _, jb := range jobs {
		queue <- jb
	}
	close(queue)
	wg.Wait()

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("marshal summary")
	}
	if err := os.WriteFile(*outPath, append(data, '\n'), 0o644); err != nil {
		log.Fatal().Err(err).Msg("write summary")
	}
	log.Info().Int("cells", len(results)).Str("path", *outPath).Msg("sweep complete")
	printTable(results)
}

func runCell(ctx context.Context, cfg *config.Config, quotes []market.Quote, signals []market.Signal, threshold, coeff float64, log zerolog.Logger) cell {
	c := *cfg
	c.Policy.Threshold = threshold
	c.Execution.ImpactCoeff = coeff
	c.Backtest.FillsPath = ""
	c.Backtest.SnapshotsPath = ""
	c.Backtest.ReportPath = ""

	out := cell{Threshold: threshold, ImpactCoeff: coeff}
	res, rep, err := backtest.RunStreams(ctx, &c, quotes, signals, log)
	if err != nil {
		out.Err = err.Error()
		log.Error().Err(err).Float64("threshold", threshold).Float64("impact_coeff", coeff).Msg("cell failed")
		return out
	}
	out.RunID = res.RunID
	out.Fills = len(res.Fills)
	out.Unfilled = res.UnfilledOrders
	out.FinalEquity = rep.FinalEquity
	out.TotalReturn = rep.TotalReturn
	out.Sharpe = rep.Sharpe
	out.MaxDrawdown = rep.MaxDrawdown
	return out
}

func printTable(cells []cell) {
	fmt.Println("\nthreshold  impact  fills  unfilled      sharpe  final_equity")
	for _, c := range cells {
		if c.Err != "" {
			fmt.Printf("%9.2f  %6.2f  error: %s\n", c.Threshold, c.ImpactCoeff, c.Err)
			continue
		}
		fmt.Printf("%9.2f  %6.2f  %5d  %8d  %10s  %12s\n",
			c.Threshold, c.ImpactCoeff, c.Fills, c.Unfilled, metricCell(c.Sharpe), metricCell(c.FinalEquity))
	}
}

func metricCell(m perf.Metric) string {
	if !m.Defined {
		return "n/a"
	}
	return strconv.FormatFloat(m.Value, 'f', 2, 64)
}
