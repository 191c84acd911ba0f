package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/backtest"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/config"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/perf"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/util"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== FX Alpha Backtester ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit data source")
		fmt.Println("3) Edit policy and sizing")
		fmt.Println("4) Edit execution frictions")
		fmt.Println("5) Save config")
		fmt.Println("6) Run backtest now")
		fmt.Println("7) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editData(reader, cfg)
		case "3":
			editPolicy(reader, cfg)
		case "4":
			editExecution(reader, cfg)
		case "5":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			runBacktest(cfg)
		case "7":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Data source: %s (%s)\n", cfg.Data.Source, cfg.Data.Instrument)
	fmt.Printf("Quotes path: %s | signals path: %s\n", cfg.Data.QuotesPath, cfg.Data.SignalsPath)
	fmt.Printf("Initial capital: %.2f | order size: %.2f | seed: %d\n",
		cfg.Backtest.InitialCapital, cfg.Backtest.OrderSize, cfg.Backtest.Seed)
	fmt.Printf("Policy: %s (threshold %.2f, hysteresis %.2f, scale %.2f)\n",
		cfg.Policy.Mode, cfg.Policy.Threshold, cfg.Policy.Hysteresis, cfg.Policy.Scale)
	fmt.Printf("Slippage: %s (coeff %.2f) | latency: %s (%dms, uniform %d-%dms)\n",
		cfg.Execution.SlippageModel, cfg.Execution.ImpactCoeff,
		cfg.Execution.LatencyModel, cfg.Execution.LatencyMs,
		cfg.Execution.LatencyMinMs, cfg.Execution.LatencyMaxMs)
	fmt.Printf("Risk caps: order %.2f | position %.2f\n",
		cfg.Risk.MaxOrderNotional, cfg.Risk.MaxPositionNotional)
	fmt.Printf("Half-life method: %s\n", cfg.Report.HalflifeMethod)
}

func editData(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Data Source ---")
	cfg.Data.Source = promptString(reader, "Source (csv/clickhouse/stub)", cfg.Data.Source)
	cfg.Data.Instrument = promptString(reader, "Instrument", cfg.Data.Instrument)
	cfg.Data.QuotesPath = promptString(reader, "Quotes CSV path", cfg.Data.QuotesPath)
	cfg.Data.SignalsPath = promptString(reader, "Signals CSV path", cfg.Data.SignalsPath)
	cfg.Data.StubQuotes = promptInt(reader, "Stub quote count", cfg.Data.StubQuotes)
	cfg.Backtest.Seed = int64(promptInt(reader, "Run seed", int(cfg.Backtest.Seed)))
}

func editPolicy(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Policy / Sizing ---")
	cfg.Policy.Mode = promptString(reader, "Policy mode (threshold/scaled)", cfg.Policy.Mode)
	cfg.Policy.Threshold = promptFloat(reader, "Entry threshold", cfg.Policy.Threshold)
	cfg.Policy.Hysteresis = promptFloat(reader, "Exit hysteresis", cfg.Policy.Hysteresis)
	cfg.Policy.Scale = promptFloat(reader, "Score scale (scaled mode)", cfg.Policy.Scale)
	cfg.Policy.MaxPosition = promptFloat(reader, "Max position (scaled mode)", cfg.Policy.MaxPosition)
	cfg.Policy.MinTrade = promptFloat(reader, "Min trade size", cfg.Policy.MinTrade)
	cfg.Backtest.OrderSize = promptFloat(reader, "Order size", cfg.Backtest.OrderSize)
	cfg.Backtest.InitialCapital = promptFloat(reader, "Initial capital", cfg.Backtest.InitialCapital)
}

func editExecution(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Execution Frictions ---")
	cfg.Execution.SlippageModel = promptString(reader, "Slippage model (none/linear/sqrt)", cfg.Execution.SlippageModel)
	cfg.Execution.ImpactCoeff = promptFloat(reader, "Impact coefficient", cfg.Execution.ImpactCoeff)
	cfg.Execution.LatencyModel = promptString(reader, "Latency model (fixed/uniform)", cfg.Execution.LatencyModel)
	cfg.Execution.LatencyMs = promptInt(reader, "Fixed latency (ms)", cfg.Execution.LatencyMs)
	cfg.Execution.LatencyMinMs = promptInt(reader, "Uniform latency min (ms)", cfg.Execution.LatencyMinMs)
	cfg.Execution.LatencyMaxMs = promptInt(reader, "Uniform latency max (ms)", cfg.Execution.LatencyMaxMs)
}

func runBacktest(cfg *config.Config) {
	fmt.Println("Running backtest...")
	log := util.NewConsoleLogger(cfg.App.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, rep, err := backtest.Run(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backtest failed: %v\n", err)
		return
	}
	fmt.Printf("\nrun %s: %d fills, %d unfilled\n", res.RunID, len(res.Fills), res.UnfilledOrders)
	fmt.Printf("final equity: %s | total return: %s\n", metric(rep.FinalEquity), metric(rep.TotalReturn))
	fmt.Printf("sharpe: %s | max drawdown: %s\n", metric(rep.Sharpe), metric(rep.MaxDrawdown))
	fmt.Printf("alpha half-life: %s seconds via %s\n", metric(rep.AlphaHalflife), rep.HalflifeMethod)
}

func metric(m perf.Metric) string {
	if !m.Defined {
		return "undefined (" + m.Note + ")"
	}
	return strconv.FormatFloat(m.Value, 'f', 4, 64)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptInt(reader *bufio.Reader, label string, current int) int {
	fmt.Printf("%s [%d]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.Atoi(line)
	if err != nil {
		fmt.Printf("invalid number, keeping %d\n", current)
		return current
	}
	return val
}

func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	return line
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	path := defaultConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(path)
}
