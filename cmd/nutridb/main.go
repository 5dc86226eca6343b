// Package main provides the entry point for the nutridb CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/fitstack/nutridb/internal/cli"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
