// Package handler implements the HTTP API of the merchant orders service.
package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/xenking/merchant-orders/internal/domain/order"
	"github.com/xenking/merchant-orders/internal/domain/pagination"
)

// OrderService is the order read model used by the handlers.
type OrderService interface {
	ListOrders(ctx context.Context, q order.ListQuery) (*order.Page, error)
	GetOrderDetail(ctx context.Context, q order.DetailQuery) (*order.Detail, error)
}

var _ OrderService = (*order.Service)(nil)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// PublicURL is the externally visible base URL used for pagination
	// links. When empty, links are derived from the request.
	PublicURL string
	// PageSize is the number of orders per page.
	PageSize int
	// ProductPageSize is the number of product lines per order detail page.
	ProductPageSize int
}

// Handler serves the order endpoints.
type Handler struct {
	orders          OrderService
	publicURL       *url.URL
	pageSize        int
	productPageSize int
}

// NewHandler constructs a Handler. Zero page sizes fall back to
// pagination.DefaultPerPage.
func NewHandler(cfg HandlerConfig, orders OrderService) (*Handler, error) {
	h := &Handler{
		orders:          orders,
		pageSize:        cfg.PageSize,
		productPageSize: cfg.ProductPageSize,
	}
	if h.pageSize <= 0 {
		h.pageSize = pagination.DefaultPerPage
	}
	if h.productPageSize <= 0 {
		h.productPageSize = pagination.DefaultPerPage
	}
	if cfg.PublicURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.PublicURL, "/"))
		if err != nil {
			return nil, err
		}
		h.publicURL = u
	}
	return h, nil
}

// selfURL returns the absolute URL of r as seen by the client.
func (h *Handler) selfURL(r *http.Request) *url.URL {
	u := &url.URL{
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
	if h.publicURL != nil {
		u.Scheme = h.publicURL.Scheme
		u.Host = h.publicURL.Host
		u.Path = h.publicURL.Path + r.URL.Path
		return u
	}

	u.Scheme = "http"
	if r.TLS != nil {
		u.Scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		u.Scheme = proto
	}
	u.Host = r.Host
	return u
}
