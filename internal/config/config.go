// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string
	Env         string
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// ClickHouse describes the native-protocol connection used for tick storage reads and writes.
type ClickHouse struct {
	Addr         string
	Database     string
	User         string
	Password     string
	QuotesTable  string `yaml:"quotes_table"`
	SignalsTable string `yaml:"signals_table"`
}

// Data selects where quote and signal streams come from.
type Data struct {
	Source      string // csv, clickhouse, or stub
	Instrument  string
	QuotesPath  string     `yaml:"quotes_path"`
	SignalsPath string     `yaml:"signals_path"`
	StubQuotes  int        `yaml:"stub_quotes"`
	ClickHouse  ClickHouse `yaml:"clickhouse"`
}

// Backtest groups run-level settings independent of the execution microstructure.
type Backtest struct {
	InitialCapital    float64 `yaml:"initial_capital"`
	OrderSize         float64 `yaml:"order_size"`
	SnapshotCadenceMs int     `yaml:"snapshot_cadence_ms"`
	Seed              int64
	FillsPath         string `yaml:"fills_path"`
	SnapshotsPath     string `yaml:"snapshots_path"`
	ReportPath        string `yaml:"report_path"`
}

// Execution tunes the simulated frictions applied to every order.
type Execution struct {
	SlippageModel string  `yaml:"slippage_model"` // none|linear|sqrt
	ImpactCoeff   float64 `yaml:"impact_coeff"`
	LatencyModel  string  `yaml:"latency_model"` // fixed|uniform
	LatencyMs     int     `yaml:"latency_ms"`
	LatencyMinMs  int     `yaml:"latency_min_ms"`
	LatencyMaxMs  int     `yaml:"latency_max_ms"`
}

// Policy selects the decision rule and its tunables.
type Policy struct {
	Mode        string
	Threshold   float64
	Hysteresis  float64
	Scale       float64
	MaxPosition float64 `yaml:"max_position"`
	MinTrade    float64 `yaml:"min_trade"`
}

// Risk encodes guard-rails on how much size a single run may take on.
type Risk struct {
	MaxOrderNotional    float64 `yaml:"max_order_notional"`
	MaxPositionNotional float64 `yaml:"max_position_notional"`
}

// Report tunes the performance evaluator.
type Report struct {
	HorizonsMs     []int  `yaml:"horizons_ms"`
	HalflifeMethod string `yaml:"halflife_method"` // regression|autocorrelation
	OutputDir      string `yaml:"output_dir"`
}

// Sweep fans a single data set out over a parameter grid.
type Sweep struct {
	Workers      int
	Thresholds   []float64
	ImpactCoeffs []float64 `yaml:"impact_coeffs"`
}

// Server configures the HTTP orchestration API.
type Server struct {
	Addr string
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Data      Data      `yaml:"data"`
	Backtest  Backtest  `yaml:"backtest"`
	Execution Execution `yaml:"execution"`
	Policy    Policy    `yaml:"policy"`
	Risk      Risk      `yaml:"risk"`
	Report    Report    `yaml:"report"`
	Sweep     Sweep     `yaml:"sweep"`
	Server    Server    `yaml:"server"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// OverlayEnv applies environment overrides for credentials that should not live in
// YAML files. Empty variables leave the file values untouched.
func OverlayEnv(cfg *Config) {
	overlay := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	overlay("CLICKHOUSE_ADDR", &cfg.Data.ClickHouse.Addr)
	overlay("CLICKHOUSE_DATABASE", &cfg.Data.ClickHouse.Database)
	overlay("CLICKHOUSE_USER", &cfg.Data.ClickHouse.User)
	overlay("CLICKHOUSE_PASSWORD", &cfg.Data.ClickHouse.Password)
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
