package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: unique key (national id, username, document number) taken
// - ErrInvalidState: entity in wrong state for requested operation, e.g.
//   reviewing a registration request that is no longer Pending
// - ErrIntegrity: write would orphan a foreign key or violate a cascade rule
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrIntegrity    = errors.New("integrity violation")
	ErrUnavailable  = errors.New("unavailable")
)
