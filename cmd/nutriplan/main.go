package main

import (
	"os"

	"github.com/joho/godotenv"

	"nutriplan/internal/cli"
)

func main() {
	// Local development convenience; a missing .env is fine.
	godotenv.Load()

	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
