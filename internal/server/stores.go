package server

import (
	"context"
	"fmt"

	"github.com/ridwanfathin/vetclinic-billing-service/internal/config"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/database"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/repository"
)

// Stores bundles the repositories of the configured database driver
type Stores struct {
	Invoices  repository.InvoiceRepository
	Directory repository.DirectoryRepository

	ping    func(ctx context.Context) error
	migrate func(ctx context.Context) error
	close   func()
}

// Ping checks the database connection
func (s *Stores) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Migrate applies the schema. Statements are idempotent.
func (s *Stores) Migrate(ctx context.Context) error {
	return s.migrate(ctx)
}

// Close releases the database connection
func (s *Stores) Close() {
	s.close()
}

// OpenStores connects to the database selected by cfg.DBDriver
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := database.NewPostgresDB(ctx, cfg.PostgresDBURL)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Invoices:  repository.NewPostgresInvoiceRepository(db),
			Directory: repository.NewPostgresDirectoryRepository(db.GetPool()),
			ping:      db.Ping,
			migrate:   db.Migrate,
			close:     db.Close,
		}, nil

	case config.DriverSQLite:
		db, err := database.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Invoices:  repository.NewSQLiteInvoiceRepository(db),
			Directory: repository.NewSQLiteDirectoryRepository(db),
			ping:      db.Ping,
			migrate:   db.Migrate,
			close:     func() { _ = db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
}
