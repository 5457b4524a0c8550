package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ridwanfathin/vetclinic-billing-service/internal/database"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/domain"
)

// SQLiteDirectoryRepository reads customers and catalog prices from SQLite
type SQLiteDirectoryRepository struct {
	db *database.SQLiteDB
}

// NewSQLiteDirectoryRepository creates a new SQLite directory repository
func NewSQLiteDirectoryRepository(db *database.SQLiteDB) *SQLiteDirectoryRepository {
	return &SQLiteDirectoryRepository{db: db}
}

// GetCustomer retrieves a customer by ID
func (r *SQLiteDirectoryRepository) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.DB().QueryRowContext(ctx, `
		SELECT id, name, email, phone
		FROM customers
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError(err, "Customer", id)
		}
		return nil, databaseError(err, "failed to get customer")
	}
	return &c, nil
}

// GetCatalogItem retrieves the current name and price of an inventory item or vaccination
func (r *SQLiteDirectoryRepository) GetCatalogItem(ctx context.Context, itemType domain.ItemType, id int64) (*domain.CatalogItem, error) {
	var query string
	switch itemType {
	case domain.ItemTypeInventoryItem:
		query = `SELECT id, name, selling_price FROM inventory_items WHERE id = ?`
	case domain.ItemTypeVaccination:
		query = `SELECT id, name, price FROM vaccinations WHERE id = ?`
	default:
		return nil, unknownCatalogError(itemType)
	}

	item := domain.CatalogItem{ItemType: itemType}
	var price string
	if err := r.db.DB().QueryRowContext(ctx, query, id).Scan(&item.ID, &item.Name, &price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError(err, catalogLabel(itemType), id)
		}
		return nil, databaseError(err, "failed to get catalog item")
	}

	var ts textScanner
	item.SellingPrice = ts.dec("price", price)
	if ts.err != nil {
		return nil, databaseError(ts.err, "failed to parse catalog price")
	}
	return &item, nil
}

// CreateCustomer inserts a customer and assigns its ID
func (r *SQLiteDirectoryRepository) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	res, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO customers (name, email, phone)
		VALUES (?, ?, ?)
	`, c.Name, c.Email, c.Phone)
	if err != nil {
		return databaseError(err, "failed to insert customer")
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return databaseError(err, "failed to read customer id")
	}
	return nil
}

// CreateCatalogItem inserts an inventory item or vaccination and assigns its ID
func (r *SQLiteDirectoryRepository) CreateCatalogItem(ctx context.Context, item *domain.CatalogItem) error {
	var query string
	switch item.ItemType {
	case domain.ItemTypeInventoryItem:
		query = `INSERT INTO inventory_items (name, selling_price) VALUES (?, ?)`
	case domain.ItemTypeVaccination:
		query = `INSERT INTO vaccinations (name, price) VALUES (?, ?)`
	default:
		return unknownCatalogError(item.ItemType)
	}

	res, err := r.db.DB().ExecContext(ctx, query, item.Name, money(item.SellingPrice))
	if err != nil {
		return databaseError(err, "failed to insert catalog item")
	}
	if item.ID, err = res.LastInsertId(); err != nil {
		return databaseError(err, "failed to read catalog item id")
	}
	return nil
}
