package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Th0mes/ignite-cart/internal/app/api"
	cartpostgres "github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/persistence/postgres"
	platformpostgres "github.com/Th0mes/ignite-cart/internal/platform/postgres"
)

// defaultCartTTL applies when CART_TTL_HOURS is unset.
const defaultCartTTL = 30 * 24 * time.Hour

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := api.LoadDotEnv(".env"); err != nil {
		log.Fatal(err)
	}
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db, cleanup, err := platformpostgres.ConnectDSN(ctx, cfg.PostgresDSN, logger, platformpostgres.WithMaxOpenConns(1))
	if err != nil {
		log.Fatalf("cannot purge carts: %v", err)
	}
	defer cleanup()

	ttl := cfg.CartTTL
	if ttl == 0 {
		ttl = defaultCartTTL
	}
	purged, err := cartpostgres.NewStore(db).PurgeStale(ctx, ttl)
	if err != nil {
		log.Fatalf("failed to purge carts: %v", err)
	}
	logger.Info("cart purge completed", slog.Int64("carts.purged", purged), slog.Duration("cart.ttl", ttl))
}
