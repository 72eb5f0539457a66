package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"discovery-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// productColumns selects a product together with its resolved category name
// and first image.
const productColumns = `
	p.product_id, p.product_name, p.brand, p.description, p.color,
	p.category_id, c.category_name,
	(SELECT pi.image_url FROM product_images pi
	 WHERE pi.product_id = p.product_id
	 ORDER BY pi.image_id LIMIT 1) AS image_url,
	p.created_at
	FROM products p
	LEFT JOIN product_categories c ON c.category_id = p.category_id`

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT "+productColumns+" WHERE p.product_id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductExists reports whether a product ID is known to the catalog
func (s *Store) ProductExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM products WHERE product_id = $1)", id)
	return exists, err
}

// ListProducts retrieves all products
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" ORDER BY p.product_id")
	return products, err
}

// SearchProductsByName retrieves products whose name contains the query,
// case-insensitively
func (s *Store) SearchProductsByName(ctx context.Context, q string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" WHERE p.product_name ILIKE '%' || $1 || '%' ORDER BY p.product_id", q)
	return products, err
}

// SearchProductsByCategory retrieves products whose resolved category name
// contains the query, case-insensitively. Uncategorized products never match
func (s *Store) SearchProductsByCategory(ctx context.Context, q string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" WHERE c.category_name ILIKE '%' || $1 || '%' ORDER BY p.product_id", q)
	return products, err
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT "+productColumns+" WHERE p.product_id IN (?) ORDER BY p.product_id", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}
