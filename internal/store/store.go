package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"restaurant-ops/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed migrations/schema.sql
var schemaSQL string

const (
	uniqueViolation          = "23505"
	customerPhoneConstraint  = "customers_phone_normalized_key"
	maxCustomerUpsertRetries = 3
)

var errStoreClosed = errors.New("store is closed")

// Store is the Postgres-backed DataSource.
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

// NewStoreFromDB wraps an existing connection pool
func NewStoreFromDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// ListMenuItems returns the catalog ordered by category then name
func (s *Store) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	items := []models.MenuItem{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT id, name, category, price, is_available, prep_time_minutes
		FROM menu_items
		ORDER BY category, name`)
	if err != nil {
		return nil, models.NewStoreError("list menu items", err)
	}
	return items, nil
}

// UpsertMenuItem inserts or replaces a catalog entry by ID
func (s *Store) UpsertMenuItem(ctx context.Context, item models.MenuItem) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO menu_items (id, name, category, price, is_available, prep_time_minutes)
		VALUES (:id, :name, :category, :price, :is_available, :prep_time_minutes)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			is_available = EXCLUDED.is_available,
			prep_time_minutes = EXCLUDED.prep_time_minutes`, item)
	return models.NewStoreError("upsert menu item", err)
}

// isCustomerPhoneConflict checks if err is a unique violation on the normalized phone,
// which happens when two first orders for the same phone race.
func isCustomerPhoneConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation && pqErr.Constraint == customerPhoneConstraint
	}
	return false
}
