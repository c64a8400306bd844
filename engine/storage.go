package engine

import (
	"context"

	"github.com/thisisjab/usersearch/querier"
)

// Storage represents a storage interface for the engine.
// Storage runs compiled searches and handles its own connection pooling.
type Storage interface {
	querier.Querier
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
}
