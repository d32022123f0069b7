// Package store persists citizen and admin login accounts.
package store

import (
	"context"
	"time"

	"civreg/internal/account/models"
	"civreg/pkg/domain"
)

// Store is the persistence port for the account directory.
type Store interface {
	InsertCitizen(ctx context.Context, account models.CitizenAccount) error
	FindCitizen(ctx context.Context, username string) (models.CitizenAccount, error)
	FindCitizenByNationalID(ctx context.Context, id domain.NationalID) (models.CitizenAccount, error)
	// UpdateCitizenLoginState persists the failed-attempt counter and status
	// after a login attempt.
	UpdateCitizenLoginState(ctx context.Context, username string, failedAttempts int, status domain.AccountStatus, now time.Time) error
	DeleteCitizenByNationalID(ctx context.Context, id domain.NationalID) error
	UsernameTaken(ctx context.Context, username string) (bool, error)

	InsertAdmin(ctx context.Context, account models.AdminAccount) error
	FindAdmin(ctx context.Context, username string) (models.AdminAccount, error)

	// CountAccounts reports the number of citizen and admin accounts.
	CountAccounts(ctx context.Context) (citizens, admins int, err error)
}
