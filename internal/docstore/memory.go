package docstore

import (
	"context"
	"sort"
	"sync"

	"regoffice/internal/query"
)

// Memory is an in-memory collection. It backs unit tests and the dev-mode
// server; other gateways must agree with its results for the same criteria.
type Memory struct {
	mu   sync.RWMutex
	docs []query.Document
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Insert(_ context.Context, docs ...query.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *Memory) ReplaceAll(_ context.Context, docs []query.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append([]query.Document(nil), docs...)
	return nil
}

func (m *Memory) Execute(_ context.Context, c query.Criteria, s *query.Sort, page query.Page) ([]query.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []query.Document
	for _, doc := range m.docs {
		ok, err := query.Matches(doc, c)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}

	if s != nil {
		sort.SliceStable(out, func(i, j int) bool {
			a := firstValue(out[i], s.Field)
			b := firstValue(out[j], s.Field)
			if s.Desc {
				return query.Less(b, a)
			}
			return query.Less(a, b)
		})
	}

	if page.Limit > 0 && len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func (m *Memory) Count(_ context.Context, c query.Criteria) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, doc := range m.docs {
		ok, err := query.Matches(doc, c)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func firstValue(doc query.Document, field string) any {
	values := query.Resolve(doc, field)
	if len(values) == 0 {
		return nil
	}
	return values[0]
}
