package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/solatis/tripwire/internal/core/config"
	"github.com/solatis/tripwire/internal/core/db"
	"github.com/solatis/tripwire/internal/core/kv"
	"github.com/solatis/tripwire/internal/rules"
	"github.com/solatis/tripwire/internal/types"
)

// loadConfig reads configuration and applies the persistent --db-url flag,
// which selects the sql backend.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbURL != "" {
		cfg.Store.Backend = config.BackendSQL
		cfg.Store.DBURL = dbURL
	}
	return cfg, nil
}

// openStore opens the configured rule store. The returned close function
// releases the backend connection.
func openStore(ctx context.Context, cfg config.StoreConfig) (rules.RuleStore, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return rules.NewMemoryStore(), func() {}, nil

	case config.BackendSQL:
		database, err := openMigratedDB(ctx, cfg.DBURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := db.NewSQLStore(database)
		if err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to create sql store: %w", err)
		}
		return store, func() { database.Close() }, nil

	case config.BackendNATS:
		nc, js, err := kv.Connect(cfg.NATSURL)
		if err != nil {
			return nil, nil, err
		}
		bucket, err := kv.OpenBucket(ctx, js, cfg.NATSBucket)
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		return kv.NewKVStore(bucket), nc.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", types.ErrUnsupportedBackend, cfg.Backend)
	}
}

// openMigratedDB opens url and refuses to continue with pending migrations.
func openMigratedDB(ctx context.Context, url string) (*sqlx.DB, error) {
	database, err := db.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			database.Close()
			return nil, fmt.Errorf("migration %s not applied - run 'tripwire migrate up' first", s.ID)
		}
	}
	return database, nil
}
