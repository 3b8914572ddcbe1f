package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and gateways return these
// (optionally wrapped) so services can decide whether a failure is fatal.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the collection
// - ErrUnavailable: the store cannot be reached; always surfaced to callers
// - ErrInvalidQuery: a criteria tree the store cannot execute (bad pattern,
//   operator/type mismatch); search and match logic absorbs this one and
//   degrades to an empty result because it is provoked by user-composed input
// - ErrConflict: write conflicts during reference-data swaps
var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("store unavailable")
	ErrInvalidQuery = errors.New("invalid query")
	ErrConflict     = errors.New("conflict")
)
