package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/thisisjab/usersearch/querier"
)

type PostgresStorageConfig struct {
	DSN          string        `yaml:"dsn" validate:"required"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	Breaker      BreakerConfig `yaml:"breaker"`
}

type PostgresStorage struct {
	sqlStorage
	cfg PostgresStorageConfig
}

func NewPostgresStorage(logger *slog.Logger, cfg PostgresStorageConfig) (*PostgresStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	return &PostgresStorage{
		cfg: cfg,
		sqlStorage: sqlStorage{
			builder:      querier.NewSQLQueryBuilder(querier.SQLOptions{Placeholder: querier.PlaceholderDollar}),
			breaker:      newBreaker("postgres", cfg.Breaker, logger),
			queryTimeout: queryTimeoutOrDefault(cfg.QueryTimeout),
		},
	}, nil
}

func (s *PostgresStorage) Connect(ctx context.Context) error {
	connCfg, err := pgx.ParseConfig(s.cfg.DSN)
	if err != nil {
		return fmt.Errorf("invalid postgres dsn: %w", err)
	}

	db := stdlib.OpenDB(*connCfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	s.db = db
	return nil
}
