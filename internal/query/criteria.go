// Package query provides a storage-agnostic criteria model for filtering
// document collections. A criteria tree is either a leaf predicate on a
// dotted field path or an AND/OR combinator over child criteria. Gateways
// translate the tree into their native query language; the in-memory
// evaluator in this package is the reference semantics.
package query

import "regexp"

// Operator identifies a leaf predicate's comparison.
type Operator string

const (
	OpEq     Operator = "EQ"
	OpNe     Operator = "NE"
	OpGt     Operator = "GT"
	OpGte    Operator = "GTE"
	OpLt     Operator = "LT"
	OpLte    Operator = "LTE"
	OpIn     Operator = "IN"
	OpExists Operator = "EXISTS"
	// OpRegex matches when the field value matches a case-insensitive
	// regular expression. Plain substring searches go through Contains,
	// which quotes its input.
	OpRegex Operator = "REGEX"
)

// Join identifies how a combinator merges its children.
type Join string

const (
	JoinAnd Join = "AND"
	JoinOr  Join = "OR"
)

// Criteria is one node of a predicate tree. A node is a leaf when Join is
// empty; otherwise Field, Op and Value are ignored and Children apply.
type Criteria struct {
	Field string
	Op    Operator
	Value any

	Join     Join
	Children []Criteria
}

// IsLeaf reports whether the node is a leaf predicate.
func (c Criteria) IsLeaf() bool { return c.Join == "" }

// Leaf builds a single predicate on a dotted field path. Paths may traverse
// nested documents and arrays; a leaf matches an array field when any
// element satisfies it.
func Leaf(field string, op Operator, value any) Criteria {
	return Criteria{Field: field, Op: op, Value: value}
}

// Eq matches documents whose field equals value.
func Eq(field string, value any) Criteria { return Leaf(field, OpEq, value) }

// Ne matches documents where no value at the field equals value. Missing
// fields match, mirroring document-store $ne semantics.
func Ne(field string, value any) Criteria { return Leaf(field, OpNe, value) }

// Gt, Gte, Lt, Lte build ordered comparisons.
func Gt(field string, value any) Criteria  { return Leaf(field, OpGt, value) }
func Gte(field string, value any) Criteria { return Leaf(field, OpGte, value) }
func Lt(field string, value any) Criteria  { return Leaf(field, OpLt, value) }
func Lte(field string, value any) Criteria { return Leaf(field, OpLte, value) }

// In matches documents whose field equals any of the given values.
func In[T any](field string, values []T) Criteria {
	anys := make([]any, len(values))
	for i, v := range values {
		anys[i] = v
	}
	return Leaf(field, OpIn, anys)
}

// Exists constrains field presence. Exists(f, false) matches documents
// where the field is absent or null.
func Exists(field string, want bool) Criteria { return Leaf(field, OpExists, want) }

// Contains matches when the field's string value contains the literal text,
// case-insensitively.
func Contains(field, text string) Criteria {
	return Leaf(field, OpRegex, regexp.QuoteMeta(text))
}

// EndsWith matches when the field's string value ends with the literal
// text, case-insensitively.
func EndsWith(field, text string) Criteria {
	return Leaf(field, OpRegex, regexp.QuoteMeta(text)+"$")
}

// Regex matches the field against a raw case-insensitive pattern. Invalid
// patterns surface as sentinel.ErrInvalidQuery at execution time.
func Regex(field, pattern string) Criteria { return Leaf(field, OpRegex, pattern) }

// And combines children so all must match. A degenerate And with no
// children matches every document.
func And(children ...Criteria) Criteria {
	return Criteria{Join: JoinAnd, Children: children}
}

// Or combines children so any may match. A degenerate Or with no children
// matches nothing.
func Or(children ...Criteria) Criteria {
	return Criteria{Join: JoinOr, Children: children}
}

// Sort orders executed results by a single field.
type Sort struct {
	Field string
	Desc  bool
}

// Asc and Desc are shorthands for the common sort directions.
func Asc(field string) *Sort  { return &Sort{Field: field} }
func Desc(field string) *Sort { return &Sort{Field: field, Desc: true} }

// Page limits result counts. Limit 0 means unlimited.
type Page struct {
	Limit int
}

// All is the unlimited page.
var All = Page{}

// Limit returns a page capped at n results.
func Limit(n int) Page { return Page{Limit: n} }
