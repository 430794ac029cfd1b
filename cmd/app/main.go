package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"OilPulse/internal/di"
	"OilPulse/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Printf("oilpulse: %v", err)
		os.Exit(1)
	}
}

// run blocks until the app receives SIGINT or SIGTERM.
func run(cfg *config.Config) error {
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer cleanup()

	return app.Run()
}
