// Package database opens the configured store backend and seeds demo data.
package database

import (
	"context"
	"fmt"

	"jaothui-api-server/config"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/store"
	"jaothui-api-server/internal/store/mongostore"
	"jaothui-api-server/internal/store/sqlstore"
)

// Open connects to the backend named by cfg.Driver. SQLite databases are
// migrated on open; Mongo collections get their indexes.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger logging.Logger) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		st, err := sqlstore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to sqlite", "path", cfg.SQLitePath)
		return st, nil

	case "mongo":
		st, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.DBName, cfg.Mongo.Transactions)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to mongo", "db", cfg.Mongo.DBName, "transactions", cfg.Mongo.Transactions)
		return st, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
