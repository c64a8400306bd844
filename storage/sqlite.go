package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/thisisjab/usersearch/querier"
	_ "modernc.org/sqlite"
)

type SQLiteStorageConfig struct {
	Path         string        `yaml:"path" validate:"required"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	Breaker      BreakerConfig `yaml:"breaker"`
}

type SQLiteStorage struct {
	sqlStorage
	cfg SQLiteStorageConfig
}

func NewSQLiteStorage(logger *slog.Logger, cfg SQLiteStorageConfig) (*SQLiteStorage, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	return &SQLiteStorage{
		cfg: cfg,
		sqlStorage: sqlStorage{
			builder:      querier.NewSQLQueryBuilder(querier.SQLOptions{Placeholder: querier.PlaceholderQuestion}),
			breaker:      newBreaker("sqlite:"+cfg.Path, cfg.Breaker, logger),
			queryTimeout: queryTimeoutOrDefault(cfg.QueryTimeout),
			bindArg:      sqliteArg,
		},
	}, nil
}

func (s *SQLiteStorage) Connect(ctx context.Context) error {
	dsn := s.cfg.Path
	if !strings.Contains(dsn, "?") {
		dsn = dsn + "?_pragma=busy_timeout(5000)"
	} else {
		dsn = dsn + "&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	s.db = db
	return nil
}

// sqlite has no date type; dates are stored as text in the canonical layout
// so they compare lexically.
func sqliteArg(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(querier.DateTimeLayout)
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return v
	}
}
