// Package server exposes backtest orchestration over HTTP: submit a run, poll its
// status, and fetch the evaluated report once it lands.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/backtest"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/config"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/engine"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/perf"
)

// Runner executes one configured run. Injected so tests stub out the heavy path.
type Runner func(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*engine.Result, *perf.Report, error)

const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// RunRequest overrides the server's configured defaults for one submission. Zero
// fields inherit the default, so a threshold of exactly zero cannot be requested
// over the API; pick an epsilon instead.
type RunRequest struct {
	Instrument    string  `json:"instrument,omitempty"`
	Source        string  `json:"source,omitempty"`
	QuotesPath    string  `json:"quotes_path,omitempty"`
	SignalsPath   string  `json:"signals_path,omitempty"`
	StubQuotes    int     `json:"stub_quotes,omitempty"`
	Seed          int64   `json:"seed,omitempty"`
	PolicyMode    string  `json:"policy_mode,omitempty"`
	Threshold     float64 `json:"threshold,omitempty"`
	Hysteresis    float64 `json:"hysteresis,omitempty"`
	Scale         float64 `json:"scale,omitempty"`
	SlippageModel string  `json:"slippage_model,omitempty"`
	ImpactCoeff   float64 `json:"impact_coeff,omitempty"`
	LatencyModel  string  `json:"latency_model,omitempty"`
	LatencyMs     int     `json:"latency_ms,omitempty"`
}

// Run tracks one submitted backtest through its lifecycle.
type Run struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	Request     RunRequest   `json:"request"`
	Error       string       `json:"error,omitempty"`
	Report      *perf.Report `json:"report,omitempty"`

	result *engine.Result
}

// Summary is the list-view projection of a run.
type Summary struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Server owns the run registry and the HTTP surface.
type Server struct {
	cfg    config.Config
	log    zerolog.Logger
	runner Runner

	mu    sync.RWMutex
	runs  map[string]*Run
	order []string
}

// New builds a server around cfg. A nil runner uses the real pipeline.
func New(cfg config.Config, log zerolog.Logger, runner Runner) *Server {
	if runner == nil {
		runner = backtest.Run
	}
	return &Server{
		cfg:    cfg,
		log:    log,
		runner: runner,
		runs:   make(map[string]*Run),
	}
}

// Router wires the versioned API.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api/v1")
	api.GET("/health", s.health)
	api.POST("/backtests", s.submit)
	api.GET("/backtests", s.list)
	api.GET("/backtests/:id", s.get)
	api.GET("/backtests/:id/report", s.report)
	api.GET("/backtests/:id/fills", s.fills)
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) submit(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run := &Run{
		ID:          uuid.NewString(),
		Status:      StatusPending,
		SubmittedAt: time.Now().UTC(),
		Request:     req,
	}
	s.mu.Lock()
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	s.mu.Unlock()

	go s.execute(run.ID, s.mergedConfig(req))

	c.JSON(http.StatusAccepted, gin.H{"id": run.ID, "status": StatusPending})
}

func (s *Server) execute(id string, cfg *config.Config) {
	s.mu.Lock()
	if run, ok := s.runs[id]; ok {
		run.Status = StatusRunning
	}
	s.mu.Unlock()

	log := s.log.With().Str("backtest_id", id).Logger()
	res, rep, err := s.runner(context.Background(), cfg, log)

	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		log.Error().Err(err).Msg("backtest failed")
		return
	}
	run.Status = StatusDone
	run.Report = rep
	run.result = res
}

// mergedConfig copies the defaults and applies non-zero request fields. API runs keep
// their outputs in the registry, never on disk.
func (s *Server) mergedConfig(req RunRequest) *config.Config {
	cfg := s.cfg
	cfg.Backtest.FillsPath = ""
	cfg.Backtest.SnapshotsPath = ""
	cfg.Backtest.ReportPath = ""

	if req.Instrument != "" {
		cfg.Data.Instrument = req.Instrument
	}
	if req.Source != "" {
		cfg.Data.Source = req.Source
	}
	if req.QuotesPath != "" {
		cfg.Data.QuotesPath = req.QuotesPath
	}
	if req.SignalsPath != "" {
		cfg.Data.SignalsPath = req.SignalsPath
	}
	if req.StubQuotes != 0 {
		cfg.Data.StubQuotes = req.StubQuotes
	}
	if req.Seed != 0 {
		cfg.Backtest.Seed = req.Seed
	}
	if req.PolicyMode != "" {
		cfg.Policy.Mode = req.PolicyMode
	}
	if req.Threshold != 0 {
		cfg.Policy.Threshold = req.Threshold
	}
	if req.Hysteresis != 0 {
		cfg.Policy.Hysteresis = req.Hysteresis
	}
	if req.Scale != 0 {
		cfg.Policy.Scale = req.Scale
	}
	if req.SlippageModel != "" {
		cfg.Execution.SlippageModel = req.SlippageModel
	}
	if req.ImpactCoeff != 0 {
		cfg.Execution.ImpactCoeff = req.ImpactCoeff
	}
	if req.LatencyModel != "" {
		cfg.Execution.LatencyModel = req.LatencyModel
	}
	if req.LatencyMs != 0 {
		cfg.Execution.LatencyMs = req.LatencyMs
	}
	return &cfg
}

func (s *Server) list(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		run := s.runs[id]
		out = append(out, Summary{
			ID:          run.ID,
			Status:      run.Status,
			SubmittedAt: run.SubmittedAt,
			FinishedAt:  run.FinishedAt,
			Error:       run.Error,
		})
	}
	c.JSON(http.StatusOK, gin.H{"backtests": out})
}

func (s *Server) get(c *gin.Context) {
	s.mu.RLock()
	run, ok := s.runs[c.Param("id")]
	if !ok {
		s.mu.RUnlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown backtest id"})
		return
	}
	view := *run
	s.mu.RUnlock()
	c.JSON(http.StatusOK, view)
}

func (s *Server) report(c *gin.Context) {
	s.mu.RLock()
	run, ok := s.runs[c.Param("id")]
	if !ok {
		s.mu.RUnlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown backtest id"})
		return
	}
	status := run.Status
	rep := run.Report
	s.mu.RUnlock()

	if status != StatusDone {
		c.JSON(http.StatusConflict, gin.H{"error": "backtest not finished", "status": status})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) fills(c *gin.Context) {
	s.mu.RLock()
	run, ok := s.runs[c.Param("id")]
	if !ok {
		s.mu.RUnlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown backtest id"})
		return
	}
	status := run.Status
	res := run.result
	s.mu.RUnlock()

	if status != StatusDone {
		c.JSON(http.StatusConflict, gin.H{"error": "backtest not finished", "status": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fills": res.Fills})
}
