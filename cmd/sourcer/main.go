// Package main provides the entry point for the profile sourcer API server and tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/profile-sourcer/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sourcer",
	Short: "Profile Sourcer HTTP API Server",
	Long: "Profile Sourcer turns a free-text hiring request into site-scoped search queries, " +
		"searches public profile directories and returns a ranked, de-duplicated candidate list.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (env SOURCER_* overrides it)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
