// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-roster-reconciliation/internal/config"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/service"
)

// Storage bundles the stores selected by STORE together with their health check and
// the function releasing the underlying connection.
type Storage struct {
	Rosters  service.RosterStore
	Sessions service.SessionStore
	Health   service.HealthChecker
	Close    func() error
}

// InitStorage opens the backend named by cfg.Store. Redis keeps the roster as one JSON
// document and remembered sessions in a hash, namespaced by REDIS_NAMESPACE. SQLite uses
// a local database file at SQLITE_PATH, created on first use.
func InitStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.Store {
	case config.StoreRedis:
		client, err := InitRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := service.NewRedisRosterStore(client, service.RedisRosterStoreConfig{
			Namespace: cfg.RedisNamespace,
		})
		return &Storage{
			Rosters:  store,
			Sessions: store,
			Health:   service.NewRedisHealthChecker(client),
			Close:    client.Close,
		}, nil
	case config.StoreSQLite:
		store, err := InitSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Rosters:  store,
			Sessions: store,
			Health:   store,
			Close:    store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// InitRedisClient connects to Redis, retrying the initial ping with exponential backoff.
func InitRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost + ":" + cfg.RedisPort,
		Password:     cfg.RedisPassword,
		DB:           0,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	if cfg.RedisRetryDelayMs > 0 {
		b.InitialInterval = time.Duration(cfg.RedisRetryDelayMs) * time.Millisecond
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(cfg.RedisMaxRetries)), ctx)

	err := backoff.Retry(
		func() error {
			if _, err := client.Ping(ctx).Result(); err != nil {
				logrus.Warnf("redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		policy,
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s:%s: %w", cfg.RedisHost, cfg.RedisPort, err)
	}

	logrus.Infof("redis client initialized (%s:%s)", cfg.RedisHost, cfg.RedisPort)
	return client, nil
}

// InitSQLiteStore opens the database file, creating its directory when missing.
func InitSQLiteStore(path string) (*service.SQLiteRosterStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	store, err := service.NewSQLiteRosterStore(path)
	if err != nil {
		return nil, err
	}
	logrus.Infof("sqlite store opened at %s", path)
	return store, nil
}
