package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"

	"github.com/gobarber/gobarber/internal/config"
	"github.com/gobarber/gobarber/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	h := asynqmon.New(asynqmon.Options{
		RootPath:     "/asynqmon",
		RedisConnOpt: asynq.RedisClientOpt{Addr: cfg.Redis.Address},
	})
	defer h.Close()

	port := os.Getenv("ASYNQMON_PORT")
	if port == "" {
		port = "8090"
	}

	log.Info().Str("port", port).Str("redis", cfg.Redis.Address).Msg("Starting Asynqmon")
	if err := http.ListenAndServe(":"+port, h); err != nil {
		log.Fatal().Err(err).Msg("Asynqmon failed")
	}
}
