// Command fxrates-proxy serves exchange rates from the currency API mirrors
// over a small JSON API, backed by the shared Redis or file cache.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/currency-api-client/internal/config"
	"github.com/Sternrassler/currency-api-client/pkg/cache"
	"github.com/Sternrassler/currency-api-client/pkg/client"
	"github.com/Sternrassler/currency-api-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("fxrates-proxy stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "fxrates-proxy",
		Output:  os.Stderr,
	})
	logger := logging.NewLogger("proxy")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, ready, closeStore, err := openStore(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeStore()

	clientCfg := client.DefaultConfig()
	clientCfg.PreferredEndpoint = cfg.Endpoint()
	if cfg.Client.UserAgent != "" {
		clientCfg.UserAgent = cfg.Client.UserAgent
	}
	clientCfg.Timeout = cfg.Client.Timeout
	clientCfg.ConnectTimeout = cfg.Client.ConnectTimeout
	clientCfg.Store = store
	clientCfg.CacheTTL = cfg.Cache.TTL

	fx, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(fx, ready, cfg.RequestTimeout),
		ReadHeaderTimeout: cfg.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("endpoint", cfg.Endpoint().String()).
			Str("store", store.Name()).
			Str("user_agent", clientCfg.UserAgent).
			Msg("Starting fxrates proxy")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns Redis when a URL is configured, the file store otherwise.
func openStore(ctx context.Context, cfg config.Cache) (cache.Store, readinessFunc, func(), error) {
	if cfg.RedisURL == "" {
		dir := cfg.Dir
		if dir == "" {
			dir = cache.DefaultDirectory()
		}
		store, err := cache.NewFileStore(dir, cfg.Namespace)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open file cache: %w", err)
		}
		return store, nil, func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info().Str("addr", opt.Addr).Msg("Connected to Redis")

	ready := func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}
	closeFn := func() {
		if err := redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	return cache.NewRedisStore(redisClient, cfg.RedisPrefix), ready, closeFn, nil
}
