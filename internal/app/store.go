package app

import (
	"context"
	"fmt"

	"qc-tracker/backend/internal/config"
	"qc-tracker/backend/internal/database"
	"qc-tracker/backend/internal/repositories"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

// OpenStore connects the configured backend and prepares its schema or indexes.
func OpenStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (repositories.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		conn, err := database.ConnectMongo(ctx, database.MongoConfig{
			URI:            cfg.Store.MongoURL,
			Database:       cfg.Store.MongoDatabase,
			MaxPoolSize:    uint64(max(cfg.Store.MaxOpenConns, 0)),
			ConnectTimeout: cfg.Store.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		store := repositories.NewMongoStore(conn)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		log.WithField("database", conn.Database.Name()).Info("connected to mongodb")
		return store, nil

	case config.DriverPostgres, config.DriverSQLite:
		level := logger.Warn
		if cfg.IsDevelopment() {
			level = logger.Info
		}
		pool, err := database.NewDatabasePool(&database.PoolConfig{
			Driver:          cfg.Store.Driver,
			DSN:             cfg.GetDatabaseDSN(),
			MaxOpenConns:    cfg.Store.MaxOpenConns,
			MaxIdleConns:    cfg.Store.MaxIdleConns,
			ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Store.ConnMaxIdleTime,
			LogLevel:        level,
		})
		if err != nil {
			return nil, err
		}
		store := repositories.NewGormStore(pool)
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.WithField("driver", store.Name()).Info("connected to sql store")
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
