package service

import (
	"context"
	"fmt"
	"strings"

	"civreg/internal/audit"
	"civreg/internal/identity/models"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/requestcontext"
)

// StatusActive is the default lifecycle status for new service records.
const StatusActive = "Active"

// AddTaxID links a new tax registration to an identity.
func (s *Service) AddTaxID(ctx context.Context, rec models.TaxID) (models.TaxID, error) {
	if err := domain.ValidateIssueDate(rec.IssueDate, requestcontext.Now(ctx)); err != nil {
		return models.TaxID{}, err
	}
	if rec.Status == "" {
		rec.Status = StatusActive
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.store.FindIdentity(txCtx, rec.NationalID); err != nil {
			return mapStoreErr(err, "identity", "")
		}
		if err := s.store.InsertTaxID(txCtx, rec); err != nil {
			return mapStoreErr(err, "tax id", "tax code already registered")
		}
		detail := fmt.Sprintf("tax id linked to identity %s", rec.NationalID)
		return s.auditor.Log(txCtx, audit.OpCreate, audit.TableTaxIDs, rec.Code.String(), detail)
	})
	if err != nil {
		return models.TaxID{}, err
	}
	return rec, nil
}

// RemoveTaxID deletes one tax registration by its code.
func (s *Service) RemoveTaxID(ctx context.Context, code domain.TaxCode) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.DeleteTaxID(txCtx, code); err != nil {
			return mapStoreErr(err, "tax id", "")
		}
		return s.auditor.Log(txCtx, audit.OpDelete, audit.TableTaxIDs, code.String(), "tax id removed")
	})
}

// ListTaxIDs returns the tax registrations linked to an identity.
func (s *Service) ListTaxIDs(ctx context.Context, id domain.NationalID) ([]models.TaxID, error) {
	if _, err := s.store.FindIdentity(ctx, id); err != nil {
		return nil, mapStoreErr(err, "identity", "")
	}
	recs, err := s.store.ListTaxIDs(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tax ids")
	}
	return recs, nil
}

// AddVoterRecord links a new voter registration to an identity. The holder
// name is denormalized from the identity at registration time.
func (s *Service) AddVoterRecord(ctx context.Context, rec models.VoterRecord) (models.VoterRecord, error) {
	if strings.TrimSpace(rec.Address) == "" {
		return models.VoterRecord{}, dErrors.New(dErrors.CodeBadRequest, "address is required")
	}
	if rec.IssueDate.IsZero() {
		rec.IssueDate = requestcontext.Now(ctx)
	}
	if rec.Status == "" {
		rec.Status = StatusActive
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		identity, err := s.store.FindIdentity(txCtx, rec.NationalID)
		if err != nil {
			return mapStoreErr(err, "identity", "")
		}
		rec.HolderName = identity.Name

		existing, err := s.store.ListVoterRecords(txCtx, rec.NationalID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list voter records")
		}
		rec.Primary = len(existing) == 0

		if err := s.store.InsertVoterRecord(txCtx, rec); err != nil {
			return mapStoreErr(err, "voter record", "electoral code already registered")
		}
		detail := fmt.Sprintf("voter record linked to identity %s", rec.NationalID)
		return s.auditor.Log(txCtx, audit.OpCreate, audit.TableVoterRecords, rec.ElectoralCode.String(), detail)
	})
	if err != nil {
		return models.VoterRecord{}, err
	}
	return rec, nil
}

// RemoveVoterRecord deletes one voter registration by its electoral code.
func (s *Service) RemoveVoterRecord(ctx context.Context, code domain.ElectoralCode) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.DeleteVoterRecord(txCtx, code); err != nil {
			return mapStoreErr(err, "voter record", "")
		}
		return s.auditor.Log(txCtx, audit.OpDelete, audit.TableVoterRecords, code.String(), "voter record removed")
	})
}

// ListVoterRecords returns the voter registrations linked to an identity.
func (s *Service) ListVoterRecords(ctx context.Context, id domain.NationalID) ([]models.VoterRecord, error) {
	if _, err := s.store.FindIdentity(ctx, id); err != nil {
		return nil, mapStoreErr(err, "identity", "")
	}
	recs, err := s.store.ListVoterRecords(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list voter records")
	}
	return recs, nil
}

// AddSimRecord links a new SIM registration to an identity.
func (s *Service) AddSimRecord(ctx context.Context, rec models.SimRecord) (models.SimRecord, error) {
	if strings.TrimSpace(rec.Provider) == "" {
		return models.SimRecord{}, dErrors.New(dErrors.CodeBadRequest, "provider is required")
	}
	if rec.Status == "" {
		rec.Status = StatusActive
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.store.FindIdentity(txCtx, rec.NationalID); err != nil {
			return mapStoreErr(err, "identity", "")
		}
		if err := s.store.InsertSimRecord(txCtx, rec); err != nil {
			return mapStoreErr(err, "sim record", "sim number already registered")
		}
		detail := fmt.Sprintf("sim record linked to identity %s", rec.NationalID)
		return s.auditor.Log(txCtx, audit.OpCreate, audit.TableSimRecords, rec.SimNumber.String(), detail)
	})
	if err != nil {
		return models.SimRecord{}, err
	}
	return rec, nil
}

// RemoveSimRecord deletes one SIM registration by its number.
func (s *Service) RemoveSimRecord(ctx context.Context, sim domain.SimNumber) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.DeleteSimRecord(txCtx, sim); err != nil {
			return mapStoreErr(err, "sim record", "")
		}
		return s.auditor.Log(txCtx, audit.OpDelete, audit.TableSimRecords, sim.String(), "sim record removed")
	})
}

// ListSimRecords returns the SIM registrations linked to an identity.
func (s *Service) ListSimRecords(ctx context.Context, id domain.NationalID) ([]models.SimRecord, error) {
	if _, err := s.store.FindIdentity(ctx, id); err != nil {
		return nil, mapStoreErr(err, "identity", "")
	}
	recs, err := s.store.ListSimRecords(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sim records")
	}
	return recs, nil
}

// AddBankAccount links a new bank account to an identity. Account number and
// bank name together identify the account.
func (s *Service) AddBankAccount(ctx context.Context, rec models.BankAccount) (models.BankAccount, error) {
	rec.AccountNumber = strings.TrimSpace(rec.AccountNumber)
	rec.BankName = strings.TrimSpace(rec.BankName)
	if rec.AccountNumber == "" {
		return models.BankAccount{}, dErrors.New(dErrors.CodeBadRequest, "account number is required")
	}
	if rec.BankName == "" {
		return models.BankAccount{}, dErrors.New(dErrors.CodeBadRequest, "bank name is required")
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.store.FindIdentity(txCtx, rec.NationalID); err != nil {
			return mapStoreErr(err, "identity", "")
		}
		if err := s.store.InsertBankAccount(txCtx, rec); err != nil {
			return mapStoreErr(err, "bank account", "account already registered at this bank")
		}
		recordID := rec.AccountNumber + "/" + rec.BankName
		detail := fmt.Sprintf("bank account linked to identity %s", rec.NationalID)
		return s.auditor.Log(txCtx, audit.OpCreate, audit.TableBankAccounts, recordID, detail)
	})
	if err != nil {
		return models.BankAccount{}, err
	}
	return rec, nil
}

// RemoveBankAccount deletes one bank account by its composite key.
func (s *Service) RemoveBankAccount(ctx context.Context, accountNumber, bankName string) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.DeleteBankAccount(txCtx, accountNumber, bankName); err != nil {
			return mapStoreErr(err, "bank account", "")
		}
		return s.auditor.Log(txCtx, audit.OpDelete, audit.TableBankAccounts, accountNumber+"/"+bankName, "bank account removed")
	})
}

// ListBankAccounts returns the bank accounts linked to an identity.
func (s *Service) ListBankAccounts(ctx context.Context, id domain.NationalID) ([]models.BankAccount, error) {
	if _, err := s.store.FindIdentity(ctx, id); err != nil {
		return nil, mapStoreErr(err, "identity", "")
	}
	recs, err := s.store.ListBankAccounts(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bank accounts")
	}
	return recs, nil
}
