package querier

import (
	"context"

	"github.com/thisisjab/usersearch/entity"
)

// QueryRequest asks a Querier for the rows of Table matching Tree.
type QueryRequest struct {
	Table string

	// Columns lists the columns to return. Empty means all.
	Columns []string

	Tree AndNode

	// Limit caps the number of rows. Zero means no limit.
	Limit int
}

type QueryResponse struct {
	Rows []entity.Row
}

// Querier runs compiled searches against a data store.
type Querier interface {
	Query(ctx context.Context, req QueryRequest) (QueryResponse, error)
}
