package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/domain"
	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
)

// PostgresDirectoryRepository reads customers and catalog prices from PostgreSQL
type PostgresDirectoryRepository struct {
	db *pgxpool.Pool
}

// NewPostgresDirectoryRepository creates a new PostgreSQL directory repository
func NewPostgresDirectoryRepository(db *pgxpool.Pool) *PostgresDirectoryRepository {
	return &PostgresDirectoryRepository{db: db}
}

// GetCustomer retrieves a customer by ID
func (r *PostgresDirectoryRepository) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.QueryRow(ctx, `
		SELECT id, name, email, phone
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError(err, "Customer", id)
		}
		return nil, databaseError(err, "failed to get customer")
	}
	return &c, nil
}

// GetCatalogItem retrieves the current name and price of an inventory item or vaccination
func (r *PostgresDirectoryRepository) GetCatalogItem(ctx context.Context, itemType domain.ItemType, id int64) (*domain.CatalogItem, error) {
	var query string
	switch itemType {
	case domain.ItemTypeInventoryItem:
		query = `SELECT id, name, selling_price FROM inventory_items WHERE id = $1`
	case domain.ItemTypeVaccination:
		query = `SELECT id, name, price FROM vaccinations WHERE id = $1`
	default:
		return nil, unknownCatalogError(itemType)
	}

	item := domain.CatalogItem{ItemType: itemType}
	if err := r.db.QueryRow(ctx, query, id).Scan(&item.ID, &item.Name, &item.SellingPrice); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError(err, catalogLabel(itemType), id)
		}
		return nil, databaseError(err, "failed to get catalog item")
	}
	return &item, nil
}

// CreateCustomer inserts a customer and assigns its ID
func (r *PostgresDirectoryRepository) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone)
		VALUES ($1, $2, $3)
		RETURNING id
	`, c.Name, c.Email, c.Phone).Scan(&c.ID)
	if err != nil {
		return databaseError(err, "failed to insert customer")
	}
	return nil
}

// CreateCatalogItem inserts an inventory item or vaccination and assigns its ID
func (r *PostgresDirectoryRepository) CreateCatalogItem(ctx context.Context, item *domain.CatalogItem) error {
	var query string
	switch item.ItemType {
	case domain.ItemTypeInventoryItem:
		query = `INSERT INTO inventory_items (name, selling_price) VALUES ($1, $2) RETURNING id`
	case domain.ItemTypeVaccination:
		query = `INSERT INTO vaccinations (name, price) VALUES ($1, $2) RETURNING id`
	default:
		return unknownCatalogError(item.ItemType)
	}

	if err := r.db.QueryRow(ctx, query, item.Name, item.SellingPrice).Scan(&item.ID); err != nil {
		return databaseError(err, "failed to insert catalog item")
	}
	return nil
}

func unknownCatalogError(itemType domain.ItemType) error {
	return ierr.NewError("no catalog for item type").
		WithHintf("Items of type %q do not reference a catalog entry", itemType).
		Mark(ierr.ErrValidation)
}

func catalogLabel(itemType domain.ItemType) string {
	if itemType == domain.ItemTypeVaccination {
		return "Vaccination"
	}
	return "Inventory item"
}
