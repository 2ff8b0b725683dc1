// Command seed-db migrates the database, loads the item catalog and
// registers a terminal API key.
package main

import (
	"context"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-checkout/internal/domain/auth"
	"github.com/xenking/kart-checkout/internal/domain/catalog"
	"github.com/xenking/kart-checkout/internal/storage/postgres"
)

type config struct {
	DatabaseURL  string   `required:"true" usage:"PostgreSQL connection URL" flag:"database-url"`
	ItemsFile    string   `default:"db/seed/items.json" usage:"Catalog JSON or JSON.gz file" flag:"items-file"`
	APIKey       string   `usage:"Terminal API key to register; skipped when empty" flag:"api-key"`
	APIKeyID     string   `default:"default" usage:"Id of the registered key" flag:"api-key-id"`
	APIKeyName   string   `default:"Default terminal" usage:"Name of the registered key" flag:"api-key-name"`
	APIKeyScopes []string `default:"quote,cart" usage:"Scopes of the registered key" flag:"api-key-scopes"`
	APIKeyPepper string   `usage:"HMAC pepper for API key hashing" flag:"api-key-pepper"`
}

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		var cfg config
		loader := aconfig.LoaderFor(&cfg, aconfig.Config{
			EnvPrefix:        "KART",
			SkipFiles:        true,
			AllowUnknownEnvs: true,
		})
		if err := loader.Load(); err != nil {
			return errors.Wrap(err, "load config")
		}
		return run(ctx, lg, cfg)
	})
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	items, err := catalog.ReadFile(cfg.ItemsFile)
	if err != nil {
		return errors.Wrap(err, "read items")
	}
	// Reject duplicate ids before touching the database.
	if _, err := catalog.NewStatic(items); err != nil {
		return errors.Wrap(err, "validate items")
	}

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

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := postgres.NewItemRepository(pool).Upsert(ctx, items); err != nil {
			return errors.Wrap(err, "upsert items")
		}
		lg.Info("Upserted items", zap.Int("count", len(items)), zap.String("path", cfg.ItemsFile))
		return nil
	})
	g.Go(func() error {
		return seedAPIKey(ctx, lg, pool, cfg)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	lg.Info("Seed completed")
	return nil
}

func seedAPIKey(ctx context.Context, lg *zap.Logger, pool *pgxpool.Pool, cfg config) error {
	if cfg.APIKey == "" {
		lg.Info("No API key given, skipping")
		return nil
	}
	if cfg.APIKeyPepper == "" {
		lg.Warn("API key pepper is empty; the server must run with the same empty pepper")
	}

	k := auth.Key{
		ID:      cfg.APIKeyID,
		KeyHash: auth.Hash([]byte(cfg.APIKeyPepper), cfg.APIKey),
		Name:    cfg.APIKeyName,
		Scopes:  cfg.APIKeyScopes,
	}
	if err := postgres.NewAPIKeyRepository(pool).Upsert(ctx, k); err != nil {
		return errors.Wrap(err, "upsert api key")
	}

	lg.Info("Upserted API key",
		zap.String("id", k.ID),
		zap.String("name", k.Name),
		zap.Strings("scopes", k.Scopes),
	)
	return nil
}
