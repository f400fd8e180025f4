package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Fixtures is a dataset of users, merchants, products and orders with
// explicit ids.
type Fixtures struct {
	Users               []FixtureUser               `json:"users"`
	MerchantAccounts    []FixtureMerchantAccount    `json:"merchant_accounts"`
	Products            []FixtureProduct            `json:"products"`
	Orders              []FixtureOrder              `json:"orders"`
	OrderProducts       []FixtureOrderProduct       `json:"order_products"`
	MerchantOrderTotals []FixtureMerchantOrderTotal `json:"merchant_order_totals"`
}

// FixtureUser is a row of users.
type FixtureUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FixtureMerchantAccount is a row of merchant_accounts.
type FixtureMerchantAccount struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// FixtureProduct is a row of products.
type FixtureProduct struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// FixtureOrder is a row of orders. UserID is the purchasing customer.
type FixtureOrder struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FixtureOrderProduct is a product line of an order, tagged with the
// merchant selling it.
type FixtureOrderProduct struct {
	OrderID    int64           `json:"order_id"`
	ProductID  int64           `json:"product_id"`
	MerchantID int64           `json:"merchant_account_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// FixtureMerchantOrderTotal is one merchant's share of an order total.
type FixtureMerchantOrderTotal struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	MerchantID int64           `json:"merchant_account_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// SeedAPIKey is an API key to upsert, already hashed.
type SeedAPIKey struct {
	ID      string
	KeyHash string
	UserID  int64
	Name    string
	Scopes  []string
}

// ParseFixtures decodes a JSON fixtures document.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	return &f, nil
}

const (
	upsertUserSQL = `INSERT INTO users (id, name, email) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email`

	upsertMerchantSQL = `INSERT INTO merchant_accounts (id, user_id, name) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, name = EXCLUDED.name`

	upsertProductSQL = `INSERT INTO products (id, name, price) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price`

	upsertOrderSQL = `INSERT INTO orders (id, user_id, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, status = EXCLUDED.status,
			total = EXCLUDED.total, created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at`

	upsertOrderProductSQL = `INSERT INTO order_products (order_id, product_id, merchant_account_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id, product_id) DO UPDATE SET merchant_account_id = EXCLUDED.merchant_account_id,
			quantity = EXCLUDED.quantity, price = EXCLUDED.price`

	upsertMerchantOrderTotalSQL = `INSERT INTO merchant_order_totals (id, order_id, merchant_account_id, total_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET order_id = EXCLUDED.order_id,
			merchant_account_id = EXCLUDED.merchant_account_id, total_price = EXCLUDED.total_price`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, user_id, name, scopes, active)
		VALUES ($1, $2, $3, $4, $5, true)
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash, user_id = EXCLUDED.user_id,
			name = EXCLUDED.name, scopes = EXCLUDED.scopes, active = true`
)

// sequenceTables have BIGSERIAL ids that fixtures set explicitly.
var sequenceTables = []string{"users", "merchant_accounts", "products", "orders", "merchant_order_totals"}

// Seed upserts the fixtures and API keys in a single transaction and
// advances the id sequences past the seeded rows.
func Seed(ctx context.Context, pool *pgxpool.Pool, f *Fixtures, keys ...SeedAPIKey) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, u := range f.Users {
			batch.Queue(upsertUserSQL, u.ID, u.Name, u.Email)
		}
		for _, m := range f.MerchantAccounts {
			batch.Queue(upsertMerchantSQL, m.ID, m.UserID, m.Name)
		}
		for _, p := range f.Products {
			batch.Queue(upsertProductSQL, p.ID, p.Name, p.Price)
		}
		for _, o := range f.Orders {
			batch.Queue(upsertOrderSQL, o.ID, o.UserID, o.Status, o.Total, o.CreatedAt, o.UpdatedAt)
		}
		for _, op := range f.OrderProducts {
			batch.Queue(upsertOrderProductSQL, op.OrderID, op.ProductID, op.MerchantID, op.Quantity, op.Price)
		}
		for _, t := range f.MerchantOrderTotals {
			batch.Queue(upsertMerchantOrderTotalSQL, t.ID, t.OrderID, t.MerchantID, t.TotalPrice)
		}
		for _, k := range keys {
			batch.Queue(upsertAPIKeySQL, k.ID, k.KeyHash, k.UserID, k.Name, k.Scopes)
		}
		for _, table := range sequenceTables {
			batch.Queue(fmt.Sprintf(
				`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), GREATEST((SELECT max(id) FROM %[1]s), 1))`,
				table,
			))
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("seeding fixtures: %w", err)
		}
		return nil
	})
}
