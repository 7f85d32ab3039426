package main

import (
	"fmt"
	"os"

	"github.com/kassolend/console/internal/config"
	"github.com/kassolend/console/internal/logger"
	"github.com/kassolend/console/internal/mockapi"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The backend logs at info at least so requests are visible
	level := cfg.Logging.Level
	if level == "warn" || level == "error" {
		level = "info"
	}
	logger.Init(level, cfg.Logging.Format)
	log := logger.GetLogger()

	srv, err := mockapi.New(cfg.MockAPI, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().
		Str("version", version).
		Str("demo_user", mockapi.DemoUsername).
		Msg("Starting KassoLend mock API...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
