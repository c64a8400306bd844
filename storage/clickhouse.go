package storage

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sony/gobreaker/v2"
	"github.com/thisisjab/usersearch/entity"
	"github.com/thisisjab/usersearch/querier"
)

type ClickHouseStorageConfig struct {
	Addr         []string      `yaml:"addr" validate:"required,min=1"`
	Database     string        `yaml:"database"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	Breaker      BreakerConfig `yaml:"breaker"`
}

type ClickHouseStorage struct {
	conn    clickhouse.Conn
	cfg     ClickHouseStorageConfig
	builder *querier.SQLQueryBuilder
	breaker *gobreaker.CircuitBreaker[querier.QueryResponse]
}

func NewClickHouseStorage(logger *slog.Logger, cfg ClickHouseStorageConfig) (*ClickHouseStorage, error) {
	if len(cfg.Addr) == 0 {
		return nil, fmt.Errorf("clickhouse address is required")
	}
	cfg.QueryTimeout = queryTimeoutOrDefault(cfg.QueryTimeout)

	return &ClickHouseStorage{
		cfg:     cfg,
		builder: querier.NewSQLQueryBuilder(querier.SQLOptions{Placeholder: querier.PlaceholderQuestion}),
		breaker: newBreaker("clickhouse", cfg.Breaker, logger),
	}, nil
}

func (s *ClickHouseStorage) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: s.cfg.Addr,
		Auth: clickhouse.Auth{
			Database: s.cfg.Database,
			Username: s.cfg.Username,
			Password: s.cfg.Password,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close() //nolint:errcheck
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	s.conn = conn
	return nil
}

func (s *ClickHouseStorage) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *ClickHouseStorage) Query(ctx context.Context, req querier.QueryRequest) (querier.QueryResponse, error) {
	if s.conn == nil {
		return querier.QueryResponse{}, ErrNotConnected
	}

	built, err := s.builder.Build(req)
	if err != nil {
		return querier.QueryResponse{}, err
	}

	return s.breaker.Execute(func() (querier.QueryResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()

		rows, err := s.conn.Query(ctx, built.Query, built.Args...)
		if err != nil {
			return querier.QueryResponse{}, fmt.Errorf("couldn't run query: %w", err)
		}
		defer rows.Close()

		result, err := scanClickHouseRows(rows)
		if err != nil {
			return querier.QueryResponse{}, err
		}
		return querier.QueryResponse{Rows: result}, nil
	})
}

// scanClickHouseRows scans into values of each column's own scan type; the
// native driver does not accept *any destinations.
func scanClickHouseRows(rows driver.Rows) ([]entity.Row, error) {
	types := rows.ColumnTypes()
	result := make([]entity.Row, 0)

	for rows.Next() {
		dest := make([]any, len(types))
		for i, ct := range types {
			dest[i] = reflect.New(ct.ScanType()).Interface()
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("couldn't scan row: %w", err)
		}

		row := make(entity.Row, len(types))
		for i, ct := range types {
			row[ct.Name()] = reflect.ValueOf(dest[i]).Elem().Interface()
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("couldn't iterate rows: %w", err)
	}

	return result, nil
}
