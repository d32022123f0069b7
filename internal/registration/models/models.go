// Package models holds the registration request, the staging record of the
// approval workflow. Approved requests materialize into an identity plus a
// citizen account; rejected ones keep the reviewer's reason.
package models

import (
	"time"

	"civreg/pkg/domain"
)

// RegistrationRequest is one citizen application. The password hash is
// computed at submit time so the plaintext never persists.
type RegistrationRequest struct {
	RequestID       int64
	Username        string
	PasswordHash    string
	NationalID      domain.NationalID
	Name            string
	Gender          domain.Gender
	BirthDate       time.Time
	Mobile          domain.Phone
	Email           string
	SubmittedAt     time.Time
	Status          domain.RequestStatus
	ReviewedBy      string
	ReviewedAt      *time.Time
	RejectionReason string
}
