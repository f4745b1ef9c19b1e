package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gofalre.io/storefront"
	"gofalre.io/storefront/api"
	"gofalre.io/storefront/catalog"
	"gofalre.io/storefront/config"
	"gofalre.io/storefront/driver"
	"gofalre.io/storefront/notify"
	"gofalre.io/storefront/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Storefront stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	notifiers := []notify.Notifier{notify.Log(logger)}

	var eventManager *storefront.EventManager
	if cfg.NatsURL != "" {
		natsConn, err := driver.ConnectNATS(cfg.NatsURL, logger)
		if err != nil {
			return err
		}
		defer natsConn.Close()

		eventManager = storefront.NewEventManager(natsConn, cfg.NotifyWorkers, logger)
		notifiers = append(notifiers, eventManager)
		logger.Info("Publishing notifications to NATS",
			zap.String("subject", storefront.NotificationSubjectPrefix+".>"))
	}

	manager := storefront.NewManager(storefront.Options{
		Storage:      store,
		Prefix:       cfg.StoragePrefix,
		CartKey:      cfg.CartKey,
		WishlistKey:  cfg.WishlistKey,
		Notifier:     notify.Multi(notifiers...),
		MergeCeiling: cfg.MergeCeiling,
		IdleTTL:      cfg.SessionIdleTTL,
		Logger:       logger,
	})

	server := api.NewServer(api.Options{
		Manager:       manager,
		Catalog:       catalog.Default(),
		SessionCookie: cfg.SessionCookie,
		SecureCookie:  cfg.IsProduction(),
		Logger:        logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(":" + cfg.ServerPort)
	}()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(serr))
	}

	manager.Close()
	if eventManager != nil {
		eventManager.Shutdown()
	}
	return err
}

// openStorage connects the configured driver and returns it with its
// cleanup function.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, func(), error) {
	clients := storage.Clients{TTL: cfg.SnapshotTTL, Logger: logger}
	cleanup := func() {}

	switch cfg.StorageDriver {
	case storage.DriverRedis:
		client, err := driver.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		clients.Redis = client
		cleanup = closeRedis(client, logger)

	case storage.DriverPostgres:
		pool, err := driver.ConnectSQL(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		clients.Postgres = pool
		cleanup = pool.Close

		pg := storage.NewPostgres(pool, logger)
		if err := migratePostgres(ctx, pg, cfg.SnapshotTTL, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	store, err := storage.Open(cfg.StorageDriver, clients)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Info("Snapshot storage ready", zap.String("driver", cfg.StorageDriver))
	return store, cleanup, nil
}

func migratePostgres(ctx context.Context, pg *storage.Postgres, ttl time.Duration, logger *zap.Logger) error {
	if err := pg.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate snapshot table: %w", err)
	}
	if ttl <= 0 {
		return nil
	}
	pruned, err := pg.Prune(ctx, ttl)
	if err != nil {
		return err
	}
	logger.Info("Pruned expired snapshots", zap.Int64("rows", pruned))
	return nil
}

func closeRedis(client *redis.Client, logger *zap.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
}

var _ storage.Pool = (*pgxpool.Pool)(nil)
