// Command seed-db loads the demo dataset and an API key into the database.
package main

import (
	"context"
	"encoding/hex"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/merchant-orders/db"
	"github.com/xenking/merchant-orders/internal/handler"
	"github.com/xenking/merchant-orders/internal/storage/postgres"
)

type config struct {
	DatabaseURL  string `usage:"PostgreSQL connection URL (ORDERS_DATABASE_URL)" flag:"database-url" env:"DATABASE_URL"`
	APIKey       string `usage:"API key to seed (ORDERS_SEED_API_KEY)" flag:"api-key" env:"SEED_API_KEY"`
	APIKeyUserID int64  `default:"1" usage:"User the seeded API key belongs to" flag:"api-key-user"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (ORDERS_API_KEY_PEPPER)" flag:"api-key-pepper" env:"API_KEY_PEPPER"`
}

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		var cfg config
		loader := aconfig.LoaderFor(&cfg, aconfig.Config{
			EnvPrefix: "ORDERS",
			SkipFiles: true,
		})
		if err := loader.Load(); err != nil {
			return errors.Wrap(err, "load config")
		}
		if cfg.DatabaseURL == "" {
			return errors.New("database URL is required: set --database-url or ORDERS_DATABASE_URL")
		}
		return run(ctx, lg, cfg)
	})
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	lg.Info("Connecting to database")

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	fixtures, err := postgres.ParseFixtures(db.Fixtures)
	if err != nil {
		return errors.Wrap(err, "parse fixtures")
	}

	var keys []postgres.SeedAPIKey
	if cfg.APIKey != "" {
		keys = append(keys, postgres.SeedAPIKey{
			ID:      "default",
			KeyHash: hex.EncodeToString(handler.HashAPIKey([]byte(cfg.APIKeyPepper), cfg.APIKey)),
			UserID:  cfg.APIKeyUserID,
			Name:    "Default merchant key",
			Scopes:  []string{"orders:read"},
		})
	} else {
		lg.Warn("No API key given, skipping api_keys")
	}

	if err := postgres.Seed(ctx, pool, fixtures, keys...); err != nil {
		return errors.Wrap(err, "seed")
	}

	lg.Info("Seed completed",
		zap.Int("users", len(fixtures.Users)),
		zap.Int("merchant_accounts", len(fixtures.MerchantAccounts)),
		zap.Int("products", len(fixtures.Products)),
		zap.Int("orders", len(fixtures.Orders)),
		zap.Int("api_keys", len(keys)),
	)
	return nil
}
