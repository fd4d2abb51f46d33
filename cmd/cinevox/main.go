package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
