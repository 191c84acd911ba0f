package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/backtest"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/config"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/metrics"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/perf"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/util"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration")
	flag.Parse()

	_ = godotenv.Load() // best-effort

	log := util.NewLogger("info")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	config.OverlayEnv(cfg)
	log = util.NewLogger(cfg.App.LogLevel)

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, rep, err := backtest.Run(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest failed")
	}

	log.Info().
		Str("run_id", res.RunID).
		Int("fills", len(res.Fills)).
		Int("unfilled", res.UnfilledOrders).
		Msg("backtest complete")

	printReport(rep)
}

func printReport(rep *perf.Report) {
	fmt.Println("\n--- Backtest Report ---")
	fmt.Printf("Run:             %s (%s)\n", rep.RunID, rep.Instrument)
	fmt.Printf("Quotes/signals:  %d / %d\n", rep.QuotesProcessed, rep.SignalsSeen)
	fmt.Printf("Fills:           %d (unfilled %d)\n", rep.Fills, rep.UnfilledOrders)
	fmt.Printf("Final equity:    %s\n", metricString(rep.FinalEquity, "%.2f"))
	fmt.Printf("Total return:    %s\n", percentString(rep.TotalReturn))
	fmt.Printf("Sharpe (ann.):   %s\n", metricString(rep.Sharpe, "%.3f"))
	fmt.Printf("Max drawdown:    %s (%s)\n", percentString(rep.MaxDrawdown), metricString(rep.MaxDrawdownAbs, "%.2f"))
	fmt.Printf("Trades:          %d wins / %d losses, win rate %s, profit factor %s\n",
		rep.Trades.Wins, rep.Trades.Losses, percentString(rep.Trades.WinRate), metricString(rep.Trades.ProfitFactor, "%.3f"))
	fmt.Printf("Alpha half-life: %s via %s\n", metricString(rep.AlphaHalflife, "%.2fs"), rep.HalflifeMethod)
}

func metricString(m perf.Metric, format string) string {
	if !m.Defined {
		return "undefined (" + m.Note + ")"
	}
	return fmt.Sprintf(format, m.Value)
}

func percentString(m perf.Metric) string {
	if !m.Defined {
		return "undefined (" + m.Note + ")"
	}
	return fmt.Sprintf("%.2f%%", m.Value*100)
}
