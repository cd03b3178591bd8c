package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/zoho-inventory-sink/internal/adapters/driving/cli"
)

func main() {
	// Best effort: a missing .env is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
