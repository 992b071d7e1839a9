package main

import (
	"log"

	"cheques-backend/internal/shared/config"
	"cheques-backend/internal/shared/server"
	"cheques-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(cfg.LogLevel)

	r, err := server.NewRouter(cfg)
	if err != nil {
		log.Fatalf("router setup error: %v", err)
	}

	addr := server.Addr(cfg.Port)
	telemetry.Info("server.starting", map[string]any{
		"addr":      addr,
		"env":       cfg.Env,
		"mock_mode": cfg.BCRAMockMode,
	})

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
