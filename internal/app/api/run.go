package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	kafkaevents "github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/events/kafka"
	"github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/external/inventory"
	carthandler "github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/http/handler"
	cartmemory "github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/memory"
	"github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/notify"
	cartobs "github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/observability"
	cartpostgres "github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/persistence/postgres"
	cartredis "github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/persistence/redis"
	cartapp "github.com/Th0mes/ignite-cart/internal/domains/cart/application"
	cartports "github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
	"github.com/Th0mes/ignite-cart/internal/platform/migrations"
	platformobservability "github.com/Th0mes/ignite-cart/internal/platform/observability"
	platformpostgres "github.com/Th0mes/ignite-cart/internal/platform/postgres"
	platformredis "github.com/Th0mes/ignite-cart/internal/platform/redis"
)

const (
	serviceName     = "ignite-cart-api"
	shutdownTimeout = 10 * time.Second
)

// Run boots the cart HTTP API and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	if err := LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	settings := platformobservability.SettingsFromEnv(serviceName)
	settings.Environment = cfg.Environment
	instruments, shutdown, err := platformobservability.Init(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	storage, cleanupStorage, err := buildCartStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanupStorage()

	inventoryService, err := buildInventory(cfg, logger)
	if err != nil {
		return err
	}

	publisher, cleanupPublisher := buildEventPublisher(cfg, logger)
	defer cleanupPublisher()

	feeds := notify.NewFeeds(notify.DefaultFeedSize)
	meter := instruments.Meter("internal.cart.application")
	tracer := instruments.Tracer("internal.cart.application")
	sessions := cartapp.NewSessions(func(ctx context.Context, session string) (cartports.Service, error) {
		notifier := cartobs.NewNotifier(feeds.For(session), logger, meter)
		core := cartapp.NewCartStore(ctx, inventoryService, storage, notifier,
			cartapp.WithLogger(logger),
			cartapp.WithStorageKey(cartapp.StorageKey(session)),
			cartapp.WithSession(session),
			cartapp.WithEventPublisher(publisher),
		)
		return cartobs.New(core,
			cartobs.WithLogger(logger),
			cartobs.WithTracer(tracer),
			cartobs.WithMeter(meter),
		), nil
	}, cfg.SessionCapacity, cartapp.WithEvictHook(feeds.Forget))

	router := carthandler.NewRouter(carthandler.NewCartAPI(sessions, feeds, logger), serviceName)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("cart API listening", slog.String("addr", server.Addr), slog.String("cart.store", cfg.CartStore))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("cart API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down cart API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func buildCartStorage(ctx context.Context, cfg Config, logger *slog.Logger) (cartports.PersistentStore, func(), error) {
	switch cfg.CartStore {
	case StorePostgres:
		db, cleanup, err := platformpostgres.ConnectDSN(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres cart store unavailable: %w", err)
		}
		if err := migrations.Run(db); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("migrate cart schema: %w", err)
		}
		logger.Info("cart store configured with postgres")
		return cartpostgres.NewStore(db), cleanup, nil
	case StoreRedis:
		client, err := platformredis.Connect(ctx, cfg.RedisAddr, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("cart store configured with redis", slog.Duration("cart.ttl", cfg.CartTTL))
		return cartredis.NewStore(client, cartredis.WithTTL(cfg.CartTTL)), func() { _ = client.Close() }, nil
	default:
		logger.Warn("cart store is in-memory, carts are lost on restart")
		return cartmemory.NewStore(), func() {}, nil
	}
}

func buildInventory(cfg Config, logger *slog.Logger) (cartports.InventoryService, error) {
	if cfg.InventoryURL == "" {
		logger.Warn("INVENTORY_URL not set, serving the demo catalog")
		return cartmemory.NewDemoInventory(), nil
	}
	client, err := inventory.NewClient(cfg.InventoryURL, &http.Client{
		Timeout:   cfg.InventoryTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		return nil, fmt.Errorf("inventory client: %w", err)
	}
	logger.Info("inventory client configured", slog.String("url", cfg.InventoryURL), slog.Duration("timeout", cfg.InventoryTimeout))
	return client, nil
}

func buildEventPublisher(cfg Config, logger *slog.Logger) (cartports.EventPublisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return cartports.NoopPublisher, func() {}
	}
	publisher := kafkaevents.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, kafkaevents.WithLogger(logger))
	logger.Info("cart events published to kafka", slog.String("topic", cfg.KafkaTopic))
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close kafka writer", slog.String("error", err.Error()))
		}
	}
}
