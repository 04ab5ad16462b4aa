package query

import (
	"context"
	"errors"

	"github.com/goliatone/go-admingrid/pkg/model"
)

// ErrNotFound is returned by sources when an id does not resolve.
var ErrNotFound = errors.New("query: record not found")

// Source is the record source a widget reads from and acts upon.
type Source interface {
	// Query returns the rows matching q, honouring order, limit and offset.
	Query(ctx context.Context, q Query) ([]model.Record, error)
	// Count returns the number of rows matching q ignoring limit and offset.
	Count(ctx context.Context, q Query) (int, error)
	// GetByIDs resolves ids in the order given. Unknown ids are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]model.Record, error)
	// Delete removes the record with id.
	Delete(ctx context.Context, id string) error
}

// IDKey is the record key sources use as primary identifier.
const IDKey = "id"
