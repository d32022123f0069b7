// Package service implements the criminal case registry: case creation,
// identity linkage and the lookups the police-check flows use.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"civreg/internal/audit"
	"civreg/internal/cases/models"
	"civreg/internal/cases/store"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/sentinel"
	txcontext "civreg/pkg/platform/tx"
	"civreg/pkg/requestcontext"
)

// AuditLogger is the slice of the audit service the case workflows need.
type AuditLogger interface {
	Log(ctx context.Context, operation, table, recordID, detail string) error
}

// IdentityChecker reports whether a national id belongs to a registered
// identity. Link operations refuse unknown identities up front instead of
// relying on the engine's foreign keys alone.
type IdentityChecker interface {
	Exists(ctx context.Context, id domain.NationalID) (bool, error)
}

type Service struct {
	store      store.Store
	auditor    AuditLogger
	tx         txcontext.Runner
	identities IdentityChecker
	logger     *slog.Logger
}

func NewService(st store.Store, auditor AuditLogger, tx txcontext.Runner, identities IdentityChecker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, auditor: auditor, tx: tx, identities: identities, logger: logger}
}

// Detail is a case together with the identities linked to it.
type Detail struct {
	Case             models.CriminalCase
	LinkedIdentities []domain.NationalID
}

// Create registers a new case and links the given identities to it, all in
// one transaction.
func (s *Service) Create(ctx context.Context, offence string, linked []domain.NationalID) (Detail, error) {
	offence = strings.TrimSpace(offence)
	if offence == "" {
		return Detail{}, dErrors.New(dErrors.CodeBadRequest, "offence is required")
	}

	var created models.CriminalCase
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.store.InsertCase(txCtx, models.CriminalCase{
			Offence:   offence,
			CreatedAt: requestcontext.Now(txCtx),
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create case")
		}
		for _, id := range linked {
			if err := s.link(txCtx, created.CaseNumber, id); err != nil {
				return err
			}
		}
		return s.auditor.Log(txCtx, audit.OpCreate, audit.TableCriminalCases,
			caseRecordID(created.CaseNumber), "case registered: "+offence)
	})
	if err != nil {
		return Detail{}, err
	}

	s.logger.InfoContext(ctx, "case registered", "case_number", created.CaseNumber, "linked", len(linked))
	return Detail{Case: created, LinkedIdentities: linked}, nil
}

// Get returns one case with its linked identities.
func (s *Service) Get(ctx context.Context, caseNumber int64) (Detail, error) {
	c, err := s.store.FindCase(ctx, caseNumber)
	if err != nil {
		return Detail{}, mapCaseErr(err, "")
	}
	linked, err := s.store.LinkedIdentities(ctx, caseNumber)
	if err != nil {
		return Detail{}, mapCaseErr(err, "")
	}
	return Detail{Case: c, LinkedIdentities: linked}, nil
}

// List returns every registered case ordered by case number.
func (s *Service) List(ctx context.Context) ([]models.CriminalCase, error) {
	cases, err := s.store.ListCases(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}
	return cases, nil
}

// Delete removes a case and all its links.
func (s *Service) Delete(ctx context.Context, caseNumber int64) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.DeleteCase(txCtx, caseNumber); err != nil {
			return mapCaseErr(err, "")
		}
		return s.auditor.Log(txCtx, audit.OpDelete, audit.TableCriminalCases,
			caseRecordID(caseNumber), "case deleted")
	})
}

// Link attaches an identity to a case.
func (s *Service) Link(ctx context.Context, caseNumber int64, id domain.NationalID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.link(txCtx, caseNumber, id); err != nil {
			return err
		}
		detail := fmt.Sprintf("identity %s linked to case %d", id, caseNumber)
		return s.auditor.Log(txCtx, audit.OpLink, audit.TableCaseLinks, caseRecordID(caseNumber), detail)
	})
}

func (s *Service) link(ctx context.Context, caseNumber int64, id domain.NationalID) error {
	known, err := s.identities.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !known {
		return dErrors.Newf(dErrors.CodeNotFound, "identity %s not found", id)
	}
	if err := s.store.Link(ctx, caseNumber, id); err != nil {
		return mapCaseErr(err, "identity already linked to this case")
	}
	return nil
}

// Unlink detaches an identity from a case.
func (s *Service) Unlink(ctx context.Context, caseNumber int64, id domain.NationalID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Unlink(txCtx, caseNumber, id); err != nil {
			return mapCaseErr(err, "")
		}
		detail := fmt.Sprintf("identity %s unlinked from case %d", id, caseNumber)
		return s.auditor.Log(txCtx, audit.OpUnlink, audit.TableCaseLinks, caseRecordID(caseNumber), detail)
	})
}

// UnlinkIdentity removes every case link for one identity. The identity
// deletion flow calls this inside its own transaction; the cases themselves
// survive.
func (s *Service) UnlinkIdentity(ctx context.Context, id domain.NationalID) (int, error) {
	removed, err := s.store.UnlinkAll(ctx, id)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to unlink identity from cases")
	}
	return removed, nil
}

// CasesForIdentity returns every case an identity is linked to. Unknown
// identities are reported as not found rather than an empty list.
func (s *Service) CasesForIdentity(ctx context.Context, id domain.NationalID) ([]models.CriminalCase, error) {
	known, err := s.identities.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "identity %s not found", id)
	}
	cases, err := s.store.CasesForIdentity(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases for identity")
	}
	return cases, nil
}

func caseRecordID(caseNumber int64) string {
	return strconv.FormatInt(caseNumber, 10)
}

func mapCaseErr(err error, conflictMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "case not found")
	case errors.Is(err, sentinel.ErrIntegrity):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "case not found")
	case errors.Is(err, sentinel.ErrConflict):
		if conflictMsg == "" {
			conflictMsg = "case link already exists"
		}
		return dErrors.Wrap(err, dErrors.CodeConflict, conflictMsg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
}
