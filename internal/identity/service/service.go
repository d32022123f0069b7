// Package service implements the citizen identity workflows: creating and
// removing identities, maintaining contact details and the biometric photo,
// and managing the service records linked to an identity.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"civreg/internal/identity/models"
	"civreg/internal/identity/store"
	"civreg/internal/platform/metrics"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/sentinel"
	txcontext "civreg/pkg/platform/tx"
	"civreg/pkg/requestcontext"

	"civreg/internal/audit"
)

// AuditLogger is the slice of the audit service the identity workflows need.
type AuditLogger interface {
	Log(ctx context.Context, operation, table, recordID, detail string) error
}

// CaseUnlinker detaches an identity from every criminal case it is linked to.
// The case records themselves survive; only the links go.
type CaseUnlinker interface {
	UnlinkIdentity(ctx context.Context, id domain.NationalID) (int, error)
}

// AccountRemover deletes the citizen account bound to an identity, if one
// exists. A missing account is not an error.
type AccountRemover interface {
	RemoveByNationalID(ctx context.Context, id domain.NationalID) error
}

// Service owns the identity ownership tree. Every mutation runs inside a
// transaction together with its audit entry.
type Service struct {
	store    store.Store
	auditor  AuditLogger
	tx       txcontext.Runner
	cases    CaseUnlinker
	accounts AccountRemover
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(
	st store.Store,
	auditor AuditLogger,
	tx txcontext.Runner,
	cases CaseUnlinker,
	accounts AccountRemover,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		auditor:  auditor,
		tx:       tx,
		cases:    cases,
		accounts: accounts,
		metrics:  m,
		logger:   logger,
	}
}

// NewIdentity carries the validated fields for identity creation. Callers
// parse raw input through pkg/domain before building one.
type NewIdentity struct {
	NationalID domain.NationalID
	Name       string
	Gender     domain.Gender
	BirthDate  time.Time
	Mobile     domain.Phone
	Email      string
}

// Create registers a new identity together with its empty biometric row. Both
// rows and the audit entry commit atomically; when called inside an enclosing
// transaction (the registration approval path) it joins that transaction.
func (s *Service) Create(ctx context.Context, in NewIdentity) (models.Identity, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Identity{}, dErrors.New(dErrors.CodeBadRequest, "name is required")
	}

	now := requestcontext.Now(ctx)
	identity := models.Identity{
		NationalID: in.NationalID,
		Name:       name,
		Gender:     in.Gender,
		BirthDate:  in.BirthDate,
		Mobile:     in.Mobile,
		Email:      strings.TrimSpace(in.Email),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.InsertIdentity(txCtx, identity); err != nil {
			return mapStoreErr(err, "identity", "national id or email already registered")
		}
		bio := models.Biometric{
			NationalID: identity.NationalID,
			Version:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.store.InsertBiometric(txCtx, bio); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create biometric record")
		}
		return s.auditor.Log(txCtx, audit.OpCreate, audit.TableIdentities, identity.NationalID.String(), "identity created")
	})
	if err != nil {
		return models.Identity{}, err
	}

	if s.metrics != nil {
		s.metrics.IdentitiesCreated.Inc()
	}
	s.logger.InfoContext(ctx, "identity created", "national_id", identity.NationalID.String())
	return identity, nil
}

// Get returns one identity by national id.
func (s *Service) Get(ctx context.Context, id domain.NationalID) (models.Identity, error) {
	identity, err := s.store.FindIdentity(ctx, id)
	if err != nil {
		return models.Identity{}, mapStoreErr(err, "identity", "")
	}
	return identity, nil
}

// Exists reports whether an identity is registered, without loading it.
func (s *Service) Exists(ctx context.Context, id domain.NationalID) (bool, error) {
	_, err := s.store.FindIdentity(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return false, nil
	default:
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up identity")
	}
}

// EmailInUse reports whether any identity holds the given email.
func (s *Service) EmailInUse(ctx context.Context, email string) (bool, error) {
	inUse, err := s.store.EmailInUse(ctx, email, "")
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	return inUse, nil
}

// List returns all identities ordered by name.
func (s *Service) List(ctx context.Context) ([]models.Identity, error) {
	list, err := s.store.ListIdentities(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list identities")
	}
	return list, nil
}

// Profile is the full view of one identity: the record itself, whether a
// photo is on file, and every linked service record.
type Profile struct {
	Identity     models.Identity
	HasPhoto     bool
	TaxIDs       []models.TaxID
	VoterRecords []models.VoterRecord
	SimRecords   []models.SimRecord
	BankAccounts []models.BankAccount
}

// GetProfile assembles the full profile for one identity.
func (s *Service) GetProfile(ctx context.Context, id domain.NationalID) (Profile, error) {
	identity, err := s.store.FindIdentity(ctx, id)
	if err != nil {
		return Profile{}, mapStoreErr(err, "identity", "")
	}

	p := Profile{Identity: identity}

	bio, err := s.store.FindBiometric(ctx, id)
	if err == nil {
		p.HasPhoto = bio.HasPhoto
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load biometric record")
	}

	if p.TaxIDs, err = s.store.ListTaxIDs(ctx, id); err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tax ids")
	}
	if p.VoterRecords, err = s.store.ListVoterRecords(ctx, id); err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list voter records")
	}
	if p.SimRecords, err = s.store.ListSimRecords(ctx, id); err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sim records")
	}
	if p.BankAccounts, err = s.store.ListBankAccounts(ctx, id); err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bank accounts")
	}
	return p, nil
}

// UpdateContact changes the mobile number and email of an identity.
func (s *Service) UpdateContact(ctx context.Context, id domain.NationalID, mobile domain.Phone, email string) (models.Identity, error) {
	email = strings.TrimSpace(email)
	now := requestcontext.Now(ctx)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.UpdateContact(txCtx, id, mobile, email, now); err != nil {
			return mapStoreErr(err, "identity", "email already registered to another identity")
		}
		return s.auditor.Log(txCtx, audit.OpUpdate, audit.TableIdentities, id.String(), "contact details updated")
	})
	if err != nil {
		return models.Identity{}, err
	}
	return s.Get(ctx, id)
}

// Delete removes an identity and its entire ownership tree: case links and
// the citizen account first, then the identity row, whose removal takes the
// biometric row and every linked service record with it.
func (s *Service) Delete(ctx context.Context, id domain.NationalID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.store.FindIdentity(txCtx, id); err != nil {
			return mapStoreErr(err, "identity", "")
		}
		unlinked, err := s.cases.UnlinkIdentity(txCtx, id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to unlink criminal cases")
		}
		if err := s.accounts.RemoveByNationalID(txCtx, id); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove citizen account")
		}
		if err := s.store.DeleteIdentity(txCtx, id); err != nil {
			return mapStoreErr(err, "identity", "")
		}
		if unlinked > 0 {
			s.logger.InfoContext(txCtx, "identity unlinked from cases before deletion",
				"national_id", id.String(), "links_removed", unlinked)
		}
		return s.auditor.Log(txCtx, audit.OpDelete, audit.TableIdentities, id.String(), "identity and linked records deleted")
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IdentitiesDeleted.Inc()
	}
	s.logger.InfoContext(ctx, "identity deleted", "national_id", id.String())
	return nil
}

// mapStoreErr translates storage sentinels into coded domain errors. The
// conflictMsg is used for ErrConflict; pass "" when a conflict is unexpected.
func mapStoreErr(err error, noun, conflictMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, noun+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		if conflictMsg == "" {
			conflictMsg = noun + " already exists"
		}
		return dErrors.Wrap(err, dErrors.CodeConflict, conflictMsg)
	case errors.Is(err, sentinel.ErrIntegrity):
		return dErrors.Wrap(err, dErrors.CodeNotFound, noun+" not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
}
