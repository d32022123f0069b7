// Package store persists identities, biometrics and linked service records.
//
// Both implementations honor the ownership tree: deleting an identity removes
// its biometric row, every linked service record, its citizen account and its
// case links. Postgres enforces this with ON DELETE CASCADE foreign keys; the
// in-memory store deletes children explicitly inside one critical section.
package store

import (
	"context"
	"time"

	"civreg/internal/identity/models"
	"civreg/pkg/domain"
)

// Store is the persistence port for the identity ownership tree.
//
// InsertBiometric exists only for the identity-creation path: the service
// layer inserts the identity and its zeroed biometric row in the same
// transaction. No other caller may create a biometric row.
type Store interface {
	InsertIdentity(ctx context.Context, identity models.Identity) error
	InsertBiometric(ctx context.Context, bio models.Biometric) error
	FindIdentity(ctx context.Context, id domain.NationalID) (models.Identity, error)
	ListIdentities(ctx context.Context) ([]models.Identity, error)
	UpdateContact(ctx context.Context, id domain.NationalID, mobile domain.Phone, email string, now time.Time) error
	DeleteIdentity(ctx context.Context, id domain.NationalID) error

	FindBiometric(ctx context.Context, id domain.NationalID) (models.Biometric, error)
	AttachPhoto(ctx context.Context, id domain.NationalID, photo []byte, format string, now time.Time) error
	ClearPhoto(ctx context.Context, id domain.NationalID, now time.Time) error

	InsertTaxID(ctx context.Context, rec models.TaxID) error
	ListTaxIDs(ctx context.Context, id domain.NationalID) ([]models.TaxID, error)
	DeleteTaxID(ctx context.Context, code domain.TaxCode) error

	InsertVoterRecord(ctx context.Context, rec models.VoterRecord) error
	ListVoterRecords(ctx context.Context, id domain.NationalID) ([]models.VoterRecord, error)
	DeleteVoterRecord(ctx context.Context, code domain.ElectoralCode) error

	InsertSimRecord(ctx context.Context, rec models.SimRecord) error
	ListSimRecords(ctx context.Context, id domain.NationalID) ([]models.SimRecord, error)
	DeleteSimRecord(ctx context.Context, sim domain.SimNumber) error

	InsertBankAccount(ctx context.Context, rec models.BankAccount) error
	ListBankAccounts(ctx context.Context, id domain.NationalID) ([]models.BankAccount, error)
	DeleteBankAccount(ctx context.Context, accountNumber, bankName string) error

	// EmailInUse reports whether any identity other than exclude holds email.
	EmailInUse(ctx context.Context, email string, exclude domain.NationalID) (bool, error)
}
