package query

import "slices"

// Builder accumulates criteria the way the report screens compose them:
// refinements are appended as AND clauses, alternatives as OR clauses.
//
// When any OR clause is present, Build produces a flat top-level list of
// the AND clauses followed by a single OR combinator over the alternatives.
// The OR group is deliberately NOT scoped to the most recent AND clause;
// callers of the legacy reports depend on the flat union behavior, so it is
// preserved here rather than reinterpreted as nested grouping.
type Builder struct {
	and []Criteria
	or  []Criteria
}

func NewBuilder() *Builder { return &Builder{} }

// And appends refinement clauses that every result must satisfy.
func (b *Builder) And(clauses ...Criteria) *Builder {
	b.and = append(b.and, clauses...)
	return b
}

// Or appends alternative clauses of which any one may satisfy.
func (b *Builder) Or(clauses ...Criteria) *Builder {
	b.or = append(b.or, clauses...)
	return b
}

// Build assembles the accumulated clauses into a single criteria tree.
func (b *Builder) Build() Criteria {
	if len(b.or) == 0 {
		return And(b.and...)
	}
	return And(append(slices.Clone(b.and), Or(b.or...))...)
}
