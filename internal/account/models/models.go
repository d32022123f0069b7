// Package models holds the login account records for citizens and admins.
package models

import (
	"time"

	"civreg/pkg/domain"
)

// CitizenAccount is a citizen login bound to exactly one identity. Accounts
// are created by registration approval, never directly.
type CitizenAccount struct {
	Username       string
	PasswordHash   string
	NationalID     domain.NationalID
	Status         domain.AccountStatus
	FailedAttempts int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AdminAccount is a reviewer login. Admin accounts are provisioned out of
// band; the service only authenticates them.
type AdminAccount struct {
	Username     string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}
