package order

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/merchant-orders/internal/domain/auth"
	"github.com/xenking/merchant-orders/internal/domain/pagination"
)

// ListQuery holds the input for listing the orders visible to a merchant.
type ListQuery struct {
	MerchantID int64
	Page       pagination.Request
}

// DetailQuery holds the input for assembling a single order.
type DetailQuery struct {
	OrderID    int64
	MerchantID int64
	Products   pagination.Request
}

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider sets the provider used for service spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer("github.com/xenking/merchant-orders/internal/domain/order")
	}
}

// WithRequireOwnership makes GetOrderDetail report ErrNotFound for orders
// that carry no price entry of the requesting merchant.
func WithRequireOwnership(v bool) Option {
	return func(s *Service) {
		s.requireOwnership = v
	}
}

// Service implements the merchant-scoped read operations on orders.
type Service struct {
	orders           Repository
	tracer           trace.Tracer
	requireOwnership bool
}

// NewService creates an order Service.
func NewService(orders Repository, opts ...Option) *Service {
	s := &Service{
		orders: orders,
		tracer: noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListOrders returns one page of orders having at least one price entry for
// the merchant. Each order carries only that merchant's price entries.
func (s *Service) ListOrders(ctx context.Context, q ListQuery) (_ *Page, rerr error) {
	req := q.Page.Normalize()
	ctx, span := s.tracer.Start(ctx, "order.ListOrders", trace.WithAttributes(
		attribute.Int64("merchant.id", q.MerchantID),
		attribute.Int("page", req.Page),
		attribute.Int("per_page", req.PerPage),
	))
	defer endSpan(span, &rerr)

	if q.MerchantID <= 0 {
		return nil, auth.ErrUnauthorized
	}
	filter := VisibleFilter{MerchantID: q.MerchantID}

	var (
		total  int
		orders []Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.orders.CountVisible(gctx, filter)
		if err != nil {
			return errors.Wrap(err, "count orders")
		}
		total = n
		return nil
	})
	g.Go(func() error {
		list, err := s.orders.ListVisible(gctx, filter, req.Limit(), req.Offset())
		if err != nil {
			return errors.Wrap(err, "list orders")
		}
		orders = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(orders) > 0 {
		ids := make([]int64, len(orders))
		for i, o := range orders {
			ids[i] = o.ID
		}
		entries, err := s.orders.ListPriceEntries(ctx, PriceEntryFilter{
			MerchantID: q.MerchantID,
			OrderIDs:   ids,
		})
		if err != nil {
			return nil, errors.Wrap(err, "list price entries")
		}
		attachPriceEntries(orders, entries)
	}

	span.SetAttributes(attribute.Int("orders.total", total))
	return &Page{
		Orders: orders,
		Meta:   pagination.NewMeta(total, req, len(orders)),
	}, nil
}

// GetOrderDetail loads an order with its product lines and price entries
// restricted to the merchant. Product lines are paginated by q.Products.
//
// Unless the service was built WithRequireOwnership, the order is returned
// even when none of its relations belong to the merchant.
func (s *Service) GetOrderDetail(ctx context.Context, q DetailQuery) (_ *Detail, rerr error) {
	req := q.Products.Normalize()
	ctx, span := s.tracer.Start(ctx, "order.GetOrderDetail", trace.WithAttributes(
		attribute.Int64("order.id", q.OrderID),
		attribute.Int64("merchant.id", q.MerchantID),
		attribute.Int("products.page", req.Page),
	))
	defer endSpan(span, &rerr)

	if q.MerchantID <= 0 {
		return nil, auth.ErrUnauthorized
	}

	o, err := s.orders.GetByID(ctx, q.OrderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %d", q.OrderID)
	}

	lines := ProductLineFilter{OrderID: o.ID, MerchantID: q.MerchantID}
	var (
		productTotal int
		products     []ProductLine
		entries      []PriceEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.orders.CountProductLines(gctx, lines)
		if err != nil {
			return errors.Wrap(err, "count products")
		}
		productTotal = n
		return nil
	})
	g.Go(func() error {
		list, err := s.orders.ListProductLines(gctx, lines, req.Limit(), req.Offset())
		if err != nil {
			return errors.Wrap(err, "list products")
		}
		products = list
		return nil
	})
	g.Go(func() error {
		list, err := s.orders.ListPriceEntries(gctx, PriceEntryFilter{
			MerchantID: q.MerchantID,
			OrderIDs:   []int64{o.ID},
		})
		if err != nil {
			return errors.Wrap(err, "list price entries")
		}
		entries = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.requireOwnership && len(entries) == 0 {
		return nil, ErrNotFound
	}

	o.PriceEntries = entries
	return &Detail{
		Order:        *o,
		Products:     products,
		ProductsMeta: pagination.NewMeta(productTotal, req, len(products)),
	}, nil
}

// attachPriceEntries distributes entries onto the orders they reference,
// keeping the repository order within each order.
func attachPriceEntries(orders []Order, entries []PriceEntry) {
	byOrder := make(map[int64][]PriceEntry, len(orders))
	for _, e := range entries {
		byOrder[e.OrderID] = append(byOrder[e.OrderID], e)
	}
	for i := range orders {
		orders[i].PriceEntries = byOrder[orders[i].ID]
	}
}

func endSpan(span trace.Span, err *error) {
	if *err != nil && !errors.Is(*err, ErrNotFound) {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
