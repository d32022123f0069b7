// Package store computes the read-only aggregates behind reporting. The
// Postgres implementation pushes the arithmetic into SQL; the in-memory
// implementation derives the same numbers by scanning the feature stores.
package store

import (
	"context"

	"civreg/internal/reporting/models"
	"civreg/pkg/domain"
)

// Store is the aggregate query port.
type Store interface {
	// CountsFor returns the per-kind record counts for one identity, or
	// sentinel.ErrNotFound when the identity does not exist.
	CountsFor(ctx context.Context, id domain.NationalID) (models.ServiceCounts, error)

	// WithMinimumRecords returns the identities holding at least min records
	// of the given kind, ordered by count descending then name ascending.
	WithMinimumRecords(ctx context.Context, kind domain.RecordKind, min int) ([]models.IdentityCount, error)

	// CombinedCounts returns one row per identity with its counts for the two
	// kinds, ordered by combined count descending then name ascending. The
	// tie policy is applied by the service layer.
	CombinedCounts(ctx context.Context, primary, secondary domain.RecordKind) ([]models.CombinedCount, error)

	// Totals returns the table-level counts for the statistics screen.
	Totals(ctx context.Context) (models.Totals, error)
}
