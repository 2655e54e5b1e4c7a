// Command app runs the TrendPulse collector, forecaster and HTTP API.
package main

import (
	"flag"
	"fmt"
	"os"

	"TrendPulse/internal/di"
	"TrendPulse/pkg/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "trendpulse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config; TRENDPULSE_* env vars override it")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// the structured logger only exists once the app is built
	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize app (env=%s backend=%s): %w", cfg.Environment, cfg.Backend.Type, err)
	}

	// blocks until SIGINT/SIGTERM
	return app.Run()
}
