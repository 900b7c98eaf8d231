// Package stores opens the result store and statistics source named by a
// StoreConfig. Every binary goes through Open so the drivers stay in step.
package stores

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/repository"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/statsource"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/config"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
)

// ErrUnknownDriver is returned for a driver Open does not support.
var ErrUnknownDriver = repository.ErrUnknownDriver

// Stores holds the opened backends. Close releases them.
type Stores struct {
	Results repository.Store
	Stats   statsource.Store

	closers []func() error
}

// Close releases every backend, returning the first error.
func (s *Stores) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// Open creates and migrates the configured backends.
//
//   - memory: both stores live in process memory.
//   - sqlite: results and statistics share one database file.
//   - postgres: results go to postgres; statistics go to the StatsDSN
//     sqlite file, or memory when StatsDSN is empty.
func Open(ctx context.Context, cfg config.StoreConfig, log logger.Logger) (*Stores, error) {
	if log == nil {
		log = logger.Get()
	}
	opts := []repository.Option{repository.WithLogger(log)}

	switch cfg.Driver {
	case config.DriverMemory, "":
		return &Stores{
			Results: repository.NewMemoryStore(opts...),
			Stats:   statsource.NewMemorySource(),
		}, nil

	case config.DriverSQLite:
		db, err := repository.NewSQLite(cfg.DSN, opts...)
		if err != nil {
			return nil, err
		}
		s := &Stores{Results: db, closers: []func() error{db.Close}}
		src := statsource.NewSQLite(db.DB())
		if err := migrateAll(ctx, db.Migrate, src.Migrate); err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Stats = src
		log.Info(ctx, "sqlite store opened", logger.String("dsn", cfg.DSN))
		return s, nil

	case config.DriverPostgres:
		pg, err := repository.NewPostgres(ctx, cfg.DSN, append(opts, repository.WithPoolSize(cfg.MaxConns, cfg.MinConns))...)
		if err != nil {
			return nil, err
		}
		s := &Stores{Results: pg, closers: []func() error{pg.Close}}
		if err := pg.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, eris.Wrap(err, "migrate postgres")
		}
		if cfg.StatsDSN == "" {
			s.Stats = statsource.NewMemorySource()
			log.Warn(ctx, "statistics kept in memory; set store.stats_dsn to persist them")
			return s, nil
		}
		db, err := repository.NewSQLite(cfg.StatsDSN, opts...)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		src := statsource.NewSQLite(db.DB())
		if err := src.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, eris.Wrap(err, "migrate statistics")
		}
		s.Stats = src
		log.Info(ctx, "postgres store opened", logger.String("stats_dsn", cfg.StatsDSN))
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}

func migrateAll(ctx context.Context, steps ...func(context.Context) error) error {
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return eris.Wrap(err, "migrate sqlite")
		}
	}
	return nil
}
