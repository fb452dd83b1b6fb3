package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restaurant-ops/internal/models"
	"restaurant-ops/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// orderRow is the flat orders row, customer snapshot included.
type orderRow struct {
	ID                  string          `db:"id"`
	Status              string          `db:"status"`
	FulfillmentType     string          `db:"fulfillment_type"`
	TableNumber         string          `db:"table_number"`
	CarNumber           string          `db:"car_number"`
	CustomerID          string          `db:"customer_id"`
	CustomerFullName    string          `db:"customer_full_name"`
	CustomerPhone       string          `db:"customer_phone"`
	CustomerTotalSpend  decimal.Decimal `db:"customer_total_spend"`
	CustomerVisitCount  int             `db:"customer_visit_count"`
	CustomerLastOrderAt time.Time       `db:"customer_last_order_at"`
	CustomerFavorite    string          `db:"customer_favorite_dish"`
	CustomerRevision    int64           `db:"customer_revision"`
	Total               decimal.Decimal `db:"total"`
	CreatedAt           time.Time       `db:"created_at"`
	ReadyAt             sql.NullTime    `db:"ready_at"`
	PrepTimeMinutes     sql.NullInt32   `db:"prep_time_minutes"`
	Note                string          `db:"note"`
	Source              string          `db:"source"`
	Revision            int64           `db:"revision"`
}

const orderColumns = `id, status, fulfillment_type, table_number, car_number,
	customer_id, customer_full_name, customer_phone, customer_total_spend,
	customer_visit_count, customer_last_order_at, customer_favorite_dish, customer_revision,
	total, created_at, ready_at, prep_time_minutes, note, source, revision`

func newOrderRow(o *models.Order) orderRow {
	row := orderRow{
		ID:                  o.ID,
		Status:              string(o.Status),
		FulfillmentType:     string(o.FulfillmentType),
		TableNumber:         o.TableNumber,
		CarNumber:           o.CarNumber,
		CustomerID:          o.Customer.ID,
		CustomerFullName:    o.Customer.FullName,
		CustomerPhone:       o.Customer.Phone,
		CustomerTotalSpend:  o.Customer.TotalSpend,
		CustomerVisitCount:  o.Customer.VisitCount,
		CustomerLastOrderAt: o.Customer.LastOrderAt,
		CustomerFavorite:    o.Customer.FavoriteDish,
		CustomerRevision:    o.Customer.Revision,
		Total:               o.Total,
		CreatedAt:           o.CreatedAt,
		Note:                o.Note,
		Source:              o.Source,
		Revision:            o.Revision,
	}
	if o.ReadyAt != nil {
		row.ReadyAt = sql.NullTime{Time: *o.ReadyAt, Valid: true}
	}
	if o.PrepTimeMinutes != nil {
		row.PrepTimeMinutes = sql.NullInt32{Int32: int32(*o.PrepTimeMinutes), Valid: true}
	}
	return row
}

func (r orderRow) toModel(items []models.OrderItem) models.Order {
	o := models.Order{
		ID:              r.ID,
		Status:          models.OrderStatus(r.Status),
		FulfillmentType: models.FulfillmentType(r.FulfillmentType),
		TableNumber:     r.TableNumber,
		CarNumber:       r.CarNumber,
		Customer: models.Customer{
			ID:           r.CustomerID,
			FullName:     r.CustomerFullName,
			Phone:        r.CustomerPhone,
			TotalSpend:   r.CustomerTotalSpend,
			VisitCount:   r.CustomerVisitCount,
			LastOrderAt:  r.CustomerLastOrderAt,
			FavoriteDish: r.CustomerFavorite,
			Revision:     r.CustomerRevision,
		},
		Items:     items,
		Total:     r.Total,
		CreatedAt: r.CreatedAt,
		Note:      r.Note,
		Source:    r.Source,
		Revision:  r.Revision,
	}
	if o.Items == nil {
		o.Items = []models.OrderItem{}
	}
	if r.ReadyAt.Valid {
		t := r.ReadyAt.Time
		o.ReadyAt = &t
	}
	if r.PrepTimeMinutes.Valid {
		p := int(r.PrepTimeMinutes.Int32)
		o.PrepTimeMinutes = &p
	}
	return o
}

// ListOrders returns every order with its items, newest first
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var rows []orderRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id")
	if err != nil {
		return nil, models.NewStoreError("list orders", err)
	}
	if len(rows) == 0 {
		return []models.Order{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	itemsByOrder, err := getOrderItems(ctx, s.db, ids)
	if err != nil {
		return nil, models.NewStoreError("list order items", err)
	}

	orders := make([]models.Order, len(rows))
	for i, row := range rows {
		orders[i] = row.toModel(itemsByOrder[row.ID])
	}
	return orders, nil
}

// GetOrder retrieves an order by ID
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := getOrder(ctx, s.db, id, false)
	if err != nil {
		return nil, models.NewStoreError("get order", err)
	}
	return order, nil
}

func getOrder(ctx context.Context, q sqlx.QueryerContext, id string, forUpdate bool) (*models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.NotFoundError("order", id)
	}

	query := "SELECT " + orderColumns + " FROM orders WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}

	var row orderRow
	err := sqlx.GetContext(ctx, q, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundError("order", id)
	}
	if err != nil {
		return nil, err
	}

	items, err := getOrderItems(ctx, q, []string{id})
	if err != nil {
		return nil, err
	}
	order := row.toModel(items[id])
	return &order, nil
}

func getOrderItems(ctx context.Context, q sqlx.QueryerContext, orderIDs []string) (map[string][]models.OrderItem, error) {
	query, args, err := sqlx.In(`
		SELECT id, order_id, menu_item_id, name, price, quantity, notes, position
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, position`, orderIDs)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var items []models.OrderItem
	if err := sqlx.SelectContext(ctx, q, &items, query, args...); err != nil {
		return nil, err
	}

	byOrder := make(map[string][]models.OrderItem, len(orderIDs))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	return byOrder, nil
}

// CreateOrder upserts the customer and inserts the order and its items in one transaction.
// Retries when a concurrent first order for the same phone wins the insert race.
func (s *Store) CreateOrder(ctx context.Context, in models.NewOrder) (*models.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxCustomerUpsertRetries; attempt++ {
		order, err := s.createOrderTx(ctx, in)
		if err == nil {
			return order, nil
		}
		if isCustomerPhoneConflict(err) {
			lastErr = err
			util.CustomerUpsertRetriesTotal.Inc()
			util.GetLogger().Warn("Concurrent first order for phone, retrying",
				zap.Int("attempt", attempt+1))
			continue
		}
		return nil, models.NewStoreError("create order", err)
	}
	return nil, models.NewStoreError("create order", lastErr)
}

func (s *Store) createOrderTx(ctx context.Context, in models.NewOrder) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	customer, err := upsertCustomerTx(ctx, tx, in)
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}

	order := buildOrder(uuid.New().String(), in, customer)
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (:id, :status, :fulfillment_type, :table_number, :car_number,
			:customer_id, :customer_full_name, :customer_phone, :customer_total_spend,
			:customer_visit_count, :customer_last_order_at, :customer_favorite_dish, :customer_revision,
			:total, :created_at, :ready_at, :prep_time_minutes, :note, :source, :revision)`,
		newOrderRow(&order))
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO order_items (id, order_id, menu_item_id, name, price, quantity, notes, position)
			VALUES (:id, :order_id, :menu_item_id, :name, :price, :quantity, :notes, :position)`,
			order.Items[i])
		if err != nil {
			return nil, fmt.Errorf("insert order item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &order, nil
}

// UpdateOrderStatus locks the order row, validates the transition and the expected
// revision, then writes status, ready_at and the bumped revision together.
func (s *Store) UpdateOrderStatus(ctx context.Context, upd models.StatusUpdate) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, models.NewStoreError("update order status", err)
	}
	defer tx.Rollback() //nolint:errcheck

	order, err := getOrder(ctx, tx, upd.OrderID, true)
	if err != nil {
		return nil, models.NewStoreError("update order status", err)
	}
	if err := checkRevision(order, upd.ExpectedRevision); err != nil {
		return nil, err
	}

	previous := order.Revision
	if err := order.SetStatus(upd.Status, upd.At); err != nil {
		return nil, err
	}

	row := newOrderRow(order)
	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, ready_at = $2, revision = $3
		WHERE id = $4 AND revision = $5`,
		row.Status, row.ReadyAt, row.Revision, row.ID, previous)
	if err != nil {
		return nil, models.NewStoreError("update order status", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, models.ConflictError("order %s changed concurrently", order.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, models.NewStoreError("update order status", err)
	}
	return order, nil
}
