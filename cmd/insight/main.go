package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/since02/a-share-insight-web/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Secrets come from the environment; a .env file is a convenience for
	// local runs and its absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Printf("run failed: %v", err)
		os.Exit(1)
	}
}
