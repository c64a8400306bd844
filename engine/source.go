package engine

import (
	"context"

	"github.com/thisisjab/usersearch/entity"
)

// SchemaSource is an interface that defines the contract for table schema providers.
// Provide sends a full table set every time the schema changes and blocks until
// ctx is done or the source has nothing more to send.
type SchemaSource interface {
	Name() string
	Provide(ctx context.Context, tablesChan chan<- []entity.Table) error
}
