// Binary server exposes the backtest pipeline over HTTP so runs can be submitted and
// polled remotely.
package main

import (
	"flag"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/config"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/metrics"
	"github.com/AMOL-023/fx-microstructure-alpha/internal/server"
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

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8085"
	}

	srv := server.New(*cfg, log, nil)
	log.Info().Str("addr", addr).Msg("orchestration api up")
	if err := srv.Router().Run(addr); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}
