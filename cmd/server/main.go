package main

import (
	"fmt"
	"os"

	"github.com/ridwanfathin/vetclinic-billing-service/internal/config"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/logger"
	"github.com/spf13/cobra"
)

// @title Vet Clinic Billing API
// @version 1.0
// @description Invoice ledger for a veterinary clinic: invoices, payments and balances.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "vetbilling",
	Short: "Veterinary clinic billing service",
	Long: `vetbilling runs the clinic's invoice ledger: invoices with computed
totals, payments against them and the outstanding balances.

Configuration is read from the environment (and a .env file in the working
directory). See internal/config for the recognised variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.L.Errorw("command failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger every command shares
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewLogger(logger.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	if cfg.EnvFile != "" {
		log.Debugw("loaded environment file", "path", cfg.EnvFile)
	}
	return cfg, log, nil
}
