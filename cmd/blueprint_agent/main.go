// Package main provides the entry point for the Blueprint Engine HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "blueprint_agent",
	Short: "Blueprint Engine HTTP API Server",
	Long:  "Blueprint Engine interviews users about a planned software project, generates a suite of blueprint documents and an ordered implementation prompt sequence, metered by per-user credits.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
