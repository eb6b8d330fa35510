package library

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"community-library/config"
)

// Open opens the store named by cfg and loads a manager from it.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*LibraryManager, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Store.Driver {
	case config.DriverRedis:
		store, err = DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	case config.DriverMemory:
		store = NewMemoryStore()
	default:
		store, err = NewDatabase(cfg.Store.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	opts := []Option{
		WithLogger(log.Named("manager")),
		WithKeyPrefix(cfg.Store.KeyPrefix),
		WithLifecycle(NewLifecycle(cfg.LoanPeriod)),
	}
	if cfg.SeedFile != "" {
		seed, err := LoadSeed(cfg.SeedFile)
		if err != nil {
			store.Close()
			return nil, err
		}
		opts = append(opts, WithSeed(seed))
	}

	lm, err := NewLibraryManager(ctx, store, opts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	return lm, nil
}
