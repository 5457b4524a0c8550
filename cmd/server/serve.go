package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/ridwanfathin/vetclinic-billing-service/docs"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/auth"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/metrics"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/server"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/service"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.LogFormat == "json" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("opening database", "driver", cfg.DBDriver)
	stores, err := server.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	if cfg.MigrateOnStart {
		if err := stores.Migrate(ctx); err != nil {
			return err
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	m := metrics.New()
	ledger := service.NewLedgerService(stores.Invoices, stores.Directory, log, m, service.LedgerConfig{
		NumberPrefix: cfg.InvoiceNumberPrefix,
		Location:     loc,
	})

	srv := server.NewServer(cfg, server.Deps{
		Ledger:  ledger,
		DB:      stores,
		Tokens:  auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpires),
		Logger:  log,
		Metrics: m,
	})
	return srv.Start(ctx)
}
