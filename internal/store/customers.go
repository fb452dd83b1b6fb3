package store

import (
	"context"
	"database/sql"
	"errors"

	"restaurant-ops/internal/models"

	"github.com/jmoiron/sqlx"
)

const customerColumns = `id, full_name, phone, phone_normalized, total_spend, visit_count,
	last_order_at, favorite_dish, revision`

// ListCustomers returns customers, most recent order first
func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	customers := []models.Customer{}
	err := s.db.SelectContext(ctx, &customers,
		"SELECT "+customerColumns+" FROM customers ORDER BY last_order_at DESC, id")
	if err != nil {
		return nil, models.NewStoreError("list customers", err)
	}
	return customers, nil
}

// upsertCustomerTx folds the order into the customer matched by phone, or inserts a new one.
// The matched row is locked until the surrounding transaction ends.
func upsertCustomerTx(ctx context.Context, tx *sqlx.Tx, in models.NewOrder) (models.Customer, error) {
	id := in.Customer
	if key := id.MatchKey(); key != "" {
		var existing models.Customer
		err := tx.GetContext(ctx, &existing,
			"SELECT "+customerColumns+" FROM customers WHERE phone_normalized = $1 FOR UPDATE", key)
		switch {
		case err == nil:
			existing.RecordOrder(id, in.Total, in.CreatedAt)
			_, err = tx.NamedExecContext(ctx, `
				UPDATE customers SET
					full_name = :full_name,
					phone = :phone,
					total_spend = :total_spend,
					visit_count = :visit_count,
					last_order_at = :last_order_at,
					revision = :revision
				WHERE id = :id`, existing)
			if err != nil {
				return models.Customer{}, err
			}
			return existing, nil
		case !errors.Is(err, sql.ErrNoRows):
			return models.Customer{}, err
		}
	}

	customer := models.NewCustomerFromOrder(id, in.Total, in.CreatedAt)
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES (:id, :full_name, :phone, :phone_normalized, :total_spend, :visit_count,
			:last_order_at, :favorite_dish, :revision)`, customer)
	if err != nil {
		return models.Customer{}, err
	}
	return customer, nil
}
