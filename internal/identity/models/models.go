// Package models holds the canonical citizen record and its linked service
// records. Every linked record references exactly one identity; deleting the
// identity removes the whole ownership tree.
package models

import (
	"time"

	"civreg/pkg/domain"
)

// Identity is the canonical citizen record, keyed by the 12-digit national id.
type Identity struct {
	NationalID domain.NationalID
	Name       string
	Gender     domain.Gender
	BirthDate  time.Time
	Mobile     domain.Phone
	Email      string // optional, unique when present
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Biometric is the per-identity biometric row. Exactly one exists per
// identity, created in the same transaction as the identity itself and never
// independently.
type Biometric struct {
	NationalID  domain.NationalID
	Photo       []byte
	PhotoFormat string
	HasPhoto    bool
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaxID is a tax registration linked to one identity.
type TaxID struct {
	Code       domain.TaxCode
	IssueDate  time.Time
	Status     string
	NationalID domain.NationalID
}

// VoterRecord is a voter registration linked to one identity. An identity may
// hold several; duplicate detection is a reporting concern, not a constraint.
type VoterRecord struct {
	ElectoralCode    domain.ElectoralCode
	NationalID       domain.NationalID
	HolderName       string // denormalized from the identity at registration time
	Address          string
	RegistrationType domain.RegistrationType
	IssueDate        time.Time
	Status           string
	Primary          bool
}

// SimRecord is a telecom SIM registration linked to one identity.
type SimRecord struct {
	SimNumber  domain.SimNumber
	Provider   string
	Status     string
	NationalID domain.NationalID
}

// BankAccount is a bank account linked to one identity, keyed by account
// number and bank name together.
type BankAccount struct {
	AccountNumber string
	BankName      string
	AccountType   string
	BranchCode    domain.BranchCode
	NationalID    domain.NationalID
}
