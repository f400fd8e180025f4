package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/merchant-orders/internal/envelope"
	"github.com/xenking/merchant-orders/pkg/httpmiddleware"
)

// Probes serves the liveness and readiness endpoints.
type Probes interface {
	LiveEndpoint(w http.ResponseWriter, r *http.Request)
	ReadyEndpoint(w http.ResponseWriter, r *http.Request)
}

// RouterConfig lists the components mounted by NewRouter.
type RouterConfig struct {
	Handler  *Handler
	Security *SecurityHandler
	Probes   Probes
	// Middlewares run inside the router, after the route is matched.
	Middlewares []httpmiddleware.Middleware
}

// NewRouter builds the HTTP routing tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	for _, m := range cfg.Middlewares {
		r.Use(m)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		envelope.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		envelope.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if cfg.Probes != nil {
		r.Get("/livez", cfg.Probes.LiveEndpoint)
		r.Get("/readyz", cfg.Probes.ReadyEndpoint)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.Security.Authenticate)
		r.Get("/orders", cfg.Handler.ListOrders)
		r.Get("/orders/{orderId}", cfg.Handler.GetOrder)
	})
	return r
}
