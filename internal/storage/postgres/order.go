package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/merchant-orders/internal/domain/order"
)

const (
	orderColumns = `o.id, o.user_id, o.status, o.total, o.created_at, o.updated_at`

	// An order is visible to a merchant when one of its price entries
	// references that merchant.
	visibleOrderPredicate = `EXISTS (
		SELECT 1 FROM merchant_order_totals t
		WHERE t.order_id = o.id AND t.merchant_account_id = $1)`

	countVisibleOrdersSQL = `SELECT count(*) FROM orders o WHERE ` + visibleOrderPredicate

	listVisibleOrdersSQL = `SELECT ` + orderColumns + ` FROM orders o
		WHERE ` + visibleOrderPredicate + `
		ORDER BY o.id
		LIMIT $2 OFFSET $3`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`

	listPriceEntriesSQL = `SELECT id, order_id, merchant_account_id, total_price
		FROM merchant_order_totals
		WHERE merchant_account_id = $1 AND order_id = ANY($2)
		ORDER BY order_id, id`

	countProductLinesSQL = `SELECT count(*) FROM order_products
		WHERE order_id = $1 AND merchant_account_id = $2`

	listProductLinesSQL = `SELECT p.id, p.name, op.merchant_account_id, op.quantity, op.price
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = $1 AND op.merchant_account_id = $2
		ORDER BY p.id
		LIMIT $3 OFFSET $4`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CountVisible returns the number of orders visible to the merchant.
func (r *OrderRepository) CountVisible(ctx context.Context, f order.VisibleFilter) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countVisibleOrdersSQL, f.MerchantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting orders of merchant %d: %w", f.MerchantID, err)
	}
	return n, nil
}

// ListVisible returns a window of the orders visible to the merchant.
func (r *OrderRepository) ListVisible(ctx context.Context, f order.VisibleFilter, limit, offset int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listVisibleOrdersSQL, f.MerchantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing orders of merchant %d: %w", f.MerchantID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// GetByID returns a single order or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	return &o, nil
}

// ListPriceEntries returns the merchant's price entries on the given orders.
func (r *OrderRepository) ListPriceEntries(ctx context.Context, f order.PriceEntryFilter) ([]order.PriceEntry, error) {
	if len(f.OrderIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, listPriceEntriesSQL, f.MerchantID, f.OrderIDs)
	if err != nil {
		return nil, fmt.Errorf("listing price entries of merchant %d: %w", f.MerchantID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.PriceEntry, error) {
		var e order.PriceEntry
		err := row.Scan(&e.ID, &e.OrderID, &e.MerchantID, &e.TotalPrice)
		return e, err
	})
}

// CountProductLines returns the number of product lines of the order tagged
// with the merchant.
func (r *OrderRepository) CountProductLines(ctx context.Context, f order.ProductLineFilter) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countProductLinesSQL, f.OrderID, f.MerchantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting products of order %d: %w", f.OrderID, err)
	}
	return n, nil
}

// ListProductLines returns a window of the order's product lines tagged with
// the merchant.
func (r *OrderRepository) ListProductLines(ctx context.Context, f order.ProductLineFilter, limit, offset int) ([]order.ProductLine, error) {
	rows, err := r.pool.Query(ctx, listProductLinesSQL, f.OrderID, f.MerchantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing products of order %d: %w", f.OrderID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.ProductLine, error) {
		var l order.ProductLine
		err := row.Scan(&l.ProductID, &l.Name, &l.MerchantID, &l.Quantity, &l.Price)
		return l, err
	})
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
