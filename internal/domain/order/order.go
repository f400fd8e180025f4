package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/merchant-orders/internal/domain/pagination"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Order is a purchase record. A single order may span several merchants.
type Order struct {
	ID         int64
	CustomerID int64
	Status     string
	Total      decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// PriceEntries holds only the entries of the merchant the order was
	// loaded for.
	PriceEntries []PriceEntry
}

// PriceEntry is the portion of an order's value attributable to one merchant.
type PriceEntry struct {
	ID         int64
	OrderID    int64
	MerchantID int64
	TotalPrice decimal.Decimal
}

// ProductLine is a product on an order, tagged with the merchant selling it.
type ProductLine struct {
	ProductID  int64
	Name       string
	MerchantID int64
	Quantity   int
	Price      decimal.Decimal
}

// Page is one page of orders visible to a merchant.
type Page struct {
	Orders []Order
	Meta   pagination.Meta
}

// Detail is an order together with the product lines and price entries that
// belong to the requesting merchant.
type Detail struct {
	Order        Order
	Products     []ProductLine
	ProductsMeta pagination.Meta
}

// VisibleFilter selects orders that have at least one price entry
// referencing MerchantID.
type VisibleFilter struct {
	MerchantID int64
}

// PriceEntryFilter selects price entries of MerchantID on the given orders.
type PriceEntryFilter struct {
	MerchantID int64
	OrderIDs   []int64
}

// ProductLineFilter selects the product lines of OrderID whose
// merchant_account_id equals MerchantID.
type ProductLineFilter struct {
	OrderID    int64
	MerchantID int64
}

// Repository defines read operations for orders and their relations.
//
// List methods return rows in ascending id order so that pages are stable.
type Repository interface {
	CountVisible(ctx context.Context, f VisibleFilter) (int, error)
	ListVisible(ctx context.Context, f VisibleFilter, limit, offset int) ([]Order, error)
	// GetByID returns ErrNotFound when no order has the given id.
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListPriceEntries(ctx context.Context, f PriceEntryFilter) ([]PriceEntry, error)
	CountProductLines(ctx context.Context, f ProductLineFilter) (int, error)
	ListProductLines(ctx context.Context, f ProductLineFilter, limit, offset int) ([]ProductLine, error)
}
