// Package docstore provides the collection gateway the search and matching
// core executes criteria against. Implementations must agree with the
// reference evaluation semantics in internal/query.
package docstore

import (
	"context"

	"regoffice/internal/query"
)

// Collection executes criteria trees over one named document collection.
//
// Execute returns documents in storage-natural order unless a sort is given,
// capped by the page limit (0 = unlimited). Count exists for liveness checks
// only; search and matching logic never uses it.
type Collection interface {
	Execute(ctx context.Context, c query.Criteria, sort *query.Sort, page query.Page) ([]query.Document, error)
	Count(ctx context.Context, c query.Criteria) (int64, error)
}

// Writer is the ingestion side used by the import pipeline and fixtures.
// Reference collections are replaced wholesale so individual entities stay
// immutable once stored.
type Writer interface {
	Insert(ctx context.Context, docs ...query.Document) error
	ReplaceAll(ctx context.Context, docs []query.Document) error
}

// ReadWriter combines querying with ingestion for stores that back both.
type ReadWriter interface {
	Collection
	Writer
}
