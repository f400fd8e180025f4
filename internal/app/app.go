package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/merchant-orders/internal/domain/order"
	"github.com/xenking/merchant-orders/internal/handler"
	"github.com/xenking/merchant-orders/internal/storage/postgres"
	"github.com/xenking/merchant-orders/internal/health"
	"github.com/xenking/merchant-orders/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadiness(health.Check{Name: "postgres", Timeout: 2 * time.Second, Func: health.PingCheck(pool)})
	healthSvc.AddLiveness(health.Check{Name: "goroutines", Timeout: time.Second, Func: health.GoroutineCountCheck(10000)})
	healthSvc.AddLiveness(health.Check{Name: "gc_pause", Timeout: time.Second, Func: health.LastGCPauseCheck(time.Second)})
	healthSvc.SetReady(true)

	// Repositories.
	orderRepo := postgres.NewOrderRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)
	merchantRepo := postgres.NewMerchantRepository(pool)

	// Domain services.
	orderService := order.NewService(orderRepo,
		order.WithTracerProvider(m.TracerProvider()),
		order.WithRequireOwnership(cfg.Orders.RequireOwnership),
	)

	// HTTP handlers.
	h, err := handler.NewHandler(handler.HandlerConfig{
		PublicURL:       cfg.PublicURL,
		PageSize:        cfg.Orders.PageSize,
		ProductPageSize: cfg.Orders.ProductPageSize,
	}, orderService)
	if err != nil {
		return errors.Wrap(err, "create handler")
	}
	securityHandler := handler.NewSecurityHandler(handler.SecurityConfig{
		Pepper:    []byte(cfg.APIKeyPepper),
		JWTSecret: []byte(cfg.JWTSecret),
	}, apikeyRepo, merchantRepo)
	if cfg.JWTSecret == "" {
		lg.Info("Bearer authentication disabled: no JWT secret configured")
	}

	router := handler.NewRouter(handler.RouterConfig{
		Handler:  h,
		Security: securityHandler,
		Probes:   healthSvc,
		Middlewares: []httpmiddleware.Middleware{
			httpmiddleware.Instrument("merchant-orders", m),
			httpmiddleware.LogRequests(),
		},
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		// Requests keep the root logger but are not cancelled with ctx, so
		// in-flight requests can drain during shutdown.
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
		Handler: httpmiddleware.Wrap(router, serverMiddlewares(ctx, cfg)...),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// serverMiddlewares returns the chain wrapped around the router, outermost
// first. RequestID runs before Recovery so panic logs carry the request id.
func serverMiddlewares(ctx context.Context, cfg *Config) []httpmiddleware.Middleware {
	return []httpmiddleware.Middleware{
		httpmiddleware.RequestID(),
		httpmiddleware.Recovery(),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.Origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "api_key", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
			TTL:   cfg.RateLimit.TTL,
		}),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
	}
}
