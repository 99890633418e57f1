package main

import (
	"flag"
	"log"
	"os"

	"FXRisk/internal/di"
	"FXRisk/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s market_data=%s pricing=%s", cfg.Environment, cfg.MarketData.Backend, cfg.Pricing.Backend)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if cfg.Kafka.Enabled {
		log.Printf("kafka: brokers=%v requests=%s", cfg.Kafka.Brokers, cfg.Kafka.Topics.Requests)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
