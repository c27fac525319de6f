package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	goredis "github.com/redis/go-redis/v9"
)

const (
	maxPingAttempts = 5
	maxBackoff      = 5 * time.Second
)

// Connect builds a traced client from a redis:// URL or a bare host[:port] and
// pings it with exponential backoff until it answers or the attempts run out.
func Connect(ctx context.Context, addr string, logger *slog.Logger) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	opts, err := goredis.ParseURL(addr)
	if err != nil {
		if !strings.Contains(addr, ":") {
			addr += ":6379"
		}
		opts = &goredis.Options{
			Addr:         addr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		}
	}
	client := goredis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}

	backoff := 200 * time.Millisecond
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			if logger != nil {
				logger.Info("redis connection established", slog.String("addr", opts.Addr), slog.Int("attempt", attempt))
			}
			return client, nil
		}
		if attempt == maxPingAttempts {
			break
		}
		if logger != nil {
			logger.Warn("redis ping failed, retrying", slog.Int("attempt", attempt), slog.Duration("backoff", backoff), slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	_ = client.Close()
	return nil, fmt.Errorf("redis at %s unreachable after %d attempts: %w", opts.Addr, maxPingAttempts, err)
}
