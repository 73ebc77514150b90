package repository

import (
	"context"

	"trackapi/internal/model"
)

// CaptureRepository defines data access for the capture ledger using SQL queries only.
type CaptureRepository interface {
	// Create inserts a new capture record and returns the stored row.
	Create(ctx context.Context, c *model.Capture) (*model.Capture, error)

	// FindByID returns a capture by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Capture, error)

	// List returns a page of captures, newest first, and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Capture], error)

	// Delete removes a capture by ID. It returns nil if the row did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
