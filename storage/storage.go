package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/thisisjab/usersearch/entity"
	"github.com/thisisjab/usersearch/querier"
)

var ErrNotConnected = errors.New("storage is not connected")

// BreakerConfig tunes the circuit breaker placed in front of every query.
type BreakerConfig struct {
	// MaxRequests is the number of probe queries allowed while half-open.
	MaxRequests uint32 `yaml:"max_requests"`

	// Interval clears the failure counts while closed. Zero never clears them.
	Interval time.Duration `yaml:"interval"`

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration `yaml:"timeout"`

	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32 `yaml:"consecutive_failures"`
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.MaxRequests == 0 {
		c.MaxRequests = 1
	}
	if c.Timeout == 0 {
		c.Timeout = 20 * time.Second
	}
	if c.ConsecutiveFailures == 0 {
		c.ConsecutiveFailures = 5
	}
	return c
}

func newBreaker(name string, cfg BreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[querier.QueryResponse] {
	cfg = cfg.withDefaults()

	return gobreaker.NewCircuitBreaker[querier.QueryResponse](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("storage circuit breaker changed state.", "name", name, "from", from.String(), "to", to.String())
		},
		// A caller giving up is not a database failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// sqlStorage runs compiled searches through database/sql. It backs both the
// sqlite and postgres storages.
type sqlStorage struct {
	db           *sql.DB
	builder      *querier.SQLQueryBuilder
	breaker      *gobreaker.CircuitBreaker[querier.QueryResponse]
	queryTimeout time.Duration

	// bindArg converts a coerced search value to a driver argument.
	bindArg func(any) any
}

func (s *sqlStorage) Query(ctx context.Context, req querier.QueryRequest) (querier.QueryResponse, error) {
	if s.db == nil {
		return querier.QueryResponse{}, ErrNotConnected
	}

	built, err := s.builder.Build(req)
	if err != nil {
		return querier.QueryResponse{}, err
	}

	if s.bindArg != nil {
		for i, a := range built.Args {
			built.Args[i] = s.bindArg(a)
		}
	}

	return s.breaker.Execute(func() (querier.QueryResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()

		rows, err := s.db.QueryContext(ctx, built.Query, built.Args...)
		if err != nil {
			return querier.QueryResponse{}, fmt.Errorf("couldn't run query: %w", err)
		}
		defer rows.Close()

		result, err := scanRows(rows)
		if err != nil {
			return querier.QueryResponse{}, err
		}
		return querier.QueryResponse{Rows: result}, nil
	})
}

func (s *sqlStorage) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanRows(rows *sql.Rows) ([]entity.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("couldn't read columns: %w", err)
	}

	result := make([]entity.Row, 0)
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("couldn't scan row: %w", err)
		}

		row := make(entity.Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("couldn't iterate rows: %w", err)
	}

	return result, nil
}

func queryTimeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * time.Second
	}
	return d
}
