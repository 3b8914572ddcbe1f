package registration

import (
	"context"

	"regoffice/internal/docstore"
	"regoffice/internal/query"
)

//go:generate mockgen -source=gateway.go -destination=mocks/gateway_mock.go -package=mocks

// Gateway executes criteria over the registrations collection. Search
// use-cases depend only on this interface, never on a concrete store.
type Gateway interface {
	Execute(ctx context.Context, c query.Criteria, sort *query.Sort, page query.Page) ([]Record, error)
	Count(ctx context.Context, c query.Criteria) (int64, error)
}

// CollectionGateway adapts a document collection into the typed gateway.
type CollectionGateway struct {
	col docstore.Collection
}

func NewGateway(col docstore.Collection) *CollectionGateway {
	return &CollectionGateway{col: col}
}

func (g *CollectionGateway) Execute(ctx context.Context, c query.Criteria, sort *query.Sort, page query.Page) ([]Record, error) {
	docs, err := g.col.Execute(ctx, c, sort, page)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		record, err := FromDocument(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (g *CollectionGateway) Count(ctx context.Context, c query.Criteria) (int64, error) {
	return g.col.Count(ctx, c)
}
