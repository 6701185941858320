// Package main provides the kalshi-analyzer command line.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/kalshi-analyzer/internal/calculator"
	"github.com/yourusername/kalshi-analyzer/internal/config"
	"github.com/yourusername/kalshi-analyzer/internal/logger"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigPath, "Path to configuration file")
	rootCmd.AddCommand(newServeCmd(), newCalcCmd(), newEventsCmd(), newVersionCmd())
}

var rootCmd = &cobra.Command{
	Use:   "kalshi-analyzer",
	Short: "Hedged 1X2 stake calculator for Kalshi football events",
	Long: `Fetches open football events from Kalshi and splits a total stake across
home, draw and away so the book is fair, loss-capped or draw-neutral.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kalshi-analyzer %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}

// loadConfig loads, overlays secrets onto and validates the configuration
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.ApplySecrets(cmd.Context(), cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newCLILogger logs to stderr so command output on stdout stays clean
func newCLILogger(cfg *config.Config) *logrus.Logger {
	l := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	l.SetOutput(os.Stderr)
	return l
}

func newEngine(cfg *config.Config) *calculator.Engine {
	return calculator.NewEngine(calculator.Options{
		HedgeFloor:                cfg.Calculator.HedgeFloor,
		DefaultExchangeCommission: cfg.Calculator.DefaultExchangeCommission,
	})
}
