// Package store persists criminal cases and their identity links.
package store

import (
	"context"

	"civreg/internal/cases/models"
	"civreg/pkg/domain"
)

// Store is the persistence port for the case registry.
type Store interface {
	// InsertCase stores the case and returns it with the assigned number.
	InsertCase(ctx context.Context, c models.CriminalCase) (models.CriminalCase, error)
	FindCase(ctx context.Context, caseNumber int64) (models.CriminalCase, error)
	ListCases(ctx context.Context) ([]models.CriminalCase, error)
	DeleteCase(ctx context.Context, caseNumber int64) error

	Link(ctx context.Context, caseNumber int64, id domain.NationalID) error
	Unlink(ctx context.Context, caseNumber int64, id domain.NationalID) error
	// UnlinkAll removes every link for one identity and reports how many went.
	UnlinkAll(ctx context.Context, id domain.NationalID) (int, error)
	LinkedIdentities(ctx context.Context, caseNumber int64) ([]domain.NationalID, error)
	CasesForIdentity(ctx context.Context, id domain.NationalID) ([]models.CriminalCase, error)
}
