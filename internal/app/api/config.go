package api

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	kafkaevents "github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/events/kafka"
	"github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/external/inventory"
	cartapp "github.com/Th0mes/ignite-cart/internal/domains/cart/application"
)

// Cart storage backends selectable through CART_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port             string
	Environment      string
	InventoryURL     string
	InventoryTimeout time.Duration
	CartStore        string
	PostgresDSN      string
	RedisAddr        string
	CartTTL          time.Duration
	SessionCapacity  int
	KafkaBrokers     []string
	KafkaTopic       string
}

// LoadDotEnv loads KEY=VALUE pairs from path without overriding variables
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:         envDefault("PORT", "8080"),
		Environment:  envDefault("ENVIRONMENT", "local"),
		InventoryURL: strings.TrimSpace(os.Getenv("INVENTORY_URL")),
		CartStore:    strings.ToLower(envDefault("CART_STORE", StoreMemory)),
		PostgresDSN:  strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:    strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envDefault("KAFKA_TOPIC", kafkaevents.DefaultTopic),
	}

	timeoutMS, err := positiveInt("INVENTORY_TIMEOUT_MS", int(inventory.DefaultTimeout/time.Millisecond))
	if err != nil {
		return Config{}, err
	}
	cfg.InventoryTimeout = time.Duration(timeoutMS) * time.Millisecond

	ttlHours, err := positiveInt("CART_TTL_HOURS", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.CartTTL = time.Duration(ttlHours) * time.Hour

	if cfg.SessionCapacity, err = positiveInt("CART_SESSION_CAPACITY", cartapp.DefaultSessionCapacity); err != nil {
		return Config{}, err
	}

	switch cfg.CartStore {
	case StoreMemory:
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			return Config{}, errors.New("CART_STORE=postgres requires POSTGRES_DSN")
		}
	case StoreRedis:
		if cfg.RedisAddr == "" {
			return Config{}, errors.New("CART_STORE=redis requires REDIS_ADDR")
		}
	default:
		return Config{}, fmt.Errorf("CART_STORE must be one of memory, postgres, redis; got %q", cfg.CartStore)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// positiveInt returns fallback when key is unset and rejects zero, negatives
// and garbage.
func positiveInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
