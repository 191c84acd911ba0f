// Binary fetchticks downloads Dukascopy tick archives for a date range and lands them
// in a quotes CSV, the configured ClickHouse table, or both.
package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/config"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/dukas"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/util"
)

func main() {
	var (
		pair       = flag.String("pair", "EURUSD", "six-letter instrument, e.g. EURUSD")
		start      = flag.String("start", "", "first day to fetch, YYYY-MM-DD (UTC)")
		end        = flag.String("end", "", "last day to fetch inclusive, defaults to start")
		out        = flag.String("out", "", "CSV output path; empty skips the CSV sink")
		warehouse  = flag.Bool("warehouse", false, "insert into the configured ClickHouse table")
		configPath = flag.String("config", "configs/config.yaml", "config used for the ClickHouse connection")
		logLevel   = flag.String("log-level", "info", "zerolog level")
	)
	flag.Parse()

	_ = godotenv.Load() // best-effort

	log := util.NewLogger(*logLevel)

	if *start == "" {
		log.Fatal().Msg("--start is required")
	}
	if *end == "" {
		*end = *start
	}
	if *out == "" && !*warehouse {
		log.Fatal().Msg("nothing to do: set --out and/or --warehouse")
	}
	startDay, err := time.ParseInLocation("2006-01-02", *start, time.UTC)
	if err != nil {
		log.Fatal().Err(err).Msg("parse --start")
	}
	endDay, err := time.ParseInLocation("2006-01-02", *end, time.UTC)
	if err != nil {
		log.Fatal().Err(err).Msg("parse --end")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fetcher, err := dukas.NewFetcher(*pair, "", log)
	if err != nil {
		log.Fatal().Err(err).Msg("build fetcher")
	}
	ticks, err := fetcher.FetchRange(ctx, startDay, endDay)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch range")
	}
	if len(ticks) == 0 {
		log.Warn().Msg("no ticks in range (weekend or missing archives)")
	}

	if *out != "" {
		if err := dukas.WriteCSV(*out, ticks); err != nil {
			log.Fatal().Err(err).Str("path", *out).Msg("write csv")
		}
		log.Info().Str("path", *out).Int("ticks", len(ticks)).Msg("csv written")
	}
	if *warehouse {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("load config")
		}
		config.OverlayEnv(cfg)
		wh, err := dukas.NewWarehouse(ctx, cfg.Data.ClickHouse)
		if err != nil {
			log.Fatal().Err(err).Msg("connect warehouse")
		}
		defer wh.Close()
		if err := wh.InsertTicks(ctx, fetcher.Pair(), ticks); err != nil {
			log.Fatal().Err(err).Msg("insert ticks")
		}
		log.Info().Int("ticks", len(ticks)).Msg("warehouse insert complete")
	}
}
