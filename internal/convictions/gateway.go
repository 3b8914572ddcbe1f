package convictions

import (
	"context"

	"regoffice/internal/docstore"
	"regoffice/internal/query"
)

//go:generate mockgen -source=gateway.go -destination=mocks/gateway_mock.go -package=mocks

// Gateway executes criteria over the reference entity collection.
type Gateway interface {
	Execute(ctx context.Context, c query.Criteria, sort *query.Sort, page query.Page) ([]ReferenceEntity, error)
	Count(ctx context.Context, c query.Criteria) (int64, error)
}

// CollectionGateway adapts a document collection into the typed gateway.
type CollectionGateway struct {
	col docstore.Collection
}

func NewGateway(col docstore.Collection) *CollectionGateway {
	return &CollectionGateway{col: col}
}

func (g *CollectionGateway) Execute(ctx context.Context, c query.Criteria, sort *query.Sort, page query.Page) ([]ReferenceEntity, error) {
	docs, err := g.col.Execute(ctx, c, sort, page)
	if err != nil {
		return nil, err
	}
	entities := make([]ReferenceEntity, 0, len(docs))
	for _, doc := range docs {
		entity, err := EntityFromDocument(doc)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (g *CollectionGateway) Count(ctx context.Context, c query.Criteria) (int64, error) {
	return g.col.Count(ctx, c)
}
