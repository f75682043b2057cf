package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"MarketIntel/internal/di"
	"MarketIntel/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	checkOnly := flag.Bool("check-config", false, "load and validate the config, then exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *checkOnly {
		fmt.Printf("config ok: %s\n", *configPath)
		return
	}

	log.Printf("marketintel env=%s port=%d candles=%s cache=%s kafka=%t clickhouse=%t stream=%t",
		cfg.Environment, cfg.Server.Port, cfg.Analytics.CandleSource, cfg.Cache.Backend,
		cfg.Kafka.Enabled, cfg.ClickHouse.Enabled, cfg.Finnhub.Stream.Enabled)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// blocks until SIGINT/SIGTERM
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
