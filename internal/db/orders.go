package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xtrntr/p2pdesk/internal/models"
	"github.com/xtrntr/p2pdesk/internal/orders"
)

// OrderRepository implements orders.Repository on PostgreSQL. Update holds a
// row lock for the duration of the callback.
type OrderRepository struct {
	db *DB
}

var _ orders.Repository = (*OrderRepository)(nil)

const orderColumns = `id, ad_id, buyer_id, counterparty_id, crypto_currency, fiat_currency,
	crypto_amount, fiat_amount, unit_price, fee, status, payment_method, payment_window_minutes,
	account_details, cancel_reason, created_at, expires_at, paid_at, released_at, completed_at,
	cancelled_at, disputed_at`

func scanOrder(row pgx.Row, o *models.Order) error {
	return row.Scan(
		&o.ID, &o.AdID, &o.BuyerID, &o.CounterpartyID, &o.CryptoCurrency, &o.FiatCurrency,
		&o.CryptoAmount, &o.FiatAmount, &o.UnitPrice, &o.Fee, &o.Status, &o.PaymentMethod, &o.PaymentWindowMinutes,
		&o.AccountDetails, &o.CancelReason, &o.CreatedAt, &o.ExpiresAt, &o.PaidAt, &o.ReleasedAt, &o.CompletedAt,
		&o.CancelledAt, &o.DisputedAt,
	)
}

// Create inserts a new order
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	_, err := r.db.Pool.Exec(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)",
		o.ID, o.AdID, o.BuyerID, o.CounterpartyID, o.CryptoCurrency, o.FiatCurrency,
		o.CryptoAmount, o.FiatAmount, o.UnitPrice, o.Fee, o.Status, o.PaymentMethod, o.PaymentWindowMinutes,
		o.AccountDetails, o.CancelReason, o.CreatedAt, o.ExpiresAt, o.PaidAt, o.ReleasedAt, o.CompletedAt,
		o.CancelledAt, o.DisputedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return orders.ErrDuplicate
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Get retrieves an order by id
func (r *OrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	o := &models.Order{}
	err := scanOrder(r.db.Pool.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id), o)
	if err != nil {
		if isNoRows(err) {
			return nil, orders.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

// List retrieves matching orders, newest first
func (r *OrderRepository) List(ctx context.Context, f orders.Filter) ([]models.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("(buyer_id = $%d OR counterparty_id = $%d)", len(args), len(args)))
	}
	if f.AdID != "" {
		args = append(args, f.AdID)
		where = append(where, fmt.Sprintf("ad_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := "SELECT " + orderColumns + " FROM orders"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	result := make([]models.Order, 0)
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update locks the order row, applies fn and writes the mutable fields back
func (r *OrderRepository) Update(ctx context.Context, id string, fn func(o *models.Order) error) (*models.Order, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the row for update to prevent concurrent modifications
	o := &models.Order{}
	err = scanOrder(tx.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id), o)
	if err != nil {
		if isNoRows(err) {
			return nil, orders.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := fn(o); err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, cancel_reason = $3, paid_at = $4, released_at = $5,
			completed_at = $6, cancelled_at = $7, disputed_at = $8
		WHERE id = $1`,
		o.ID, o.Status, o.CancelReason, o.PaidAt, o.ReleasedAt, o.CompletedAt, o.CancelledAt, o.DisputedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, orders.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return o, nil
}

// ExpiredIDs lists pending orders whose payment window closed before now
func (r *OrderRepository) ExpiredIDs(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		"SELECT id FROM orders WHERE status = $1 AND expires_at < $2 ORDER BY id",
		models.StatusPendingPayment, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired orders: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByStatus counts orders per status
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error) {
	rows, err := r.db.Pool.Query(ctx, "SELECT status, COUNT(*) FROM orders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.OrderStatus]int)
	for rows.Next() {
		var (
			status models.OrderStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
