package store

import (
	"context"
	"sort"

	casemodels "civreg/internal/cases/models"
	identitymodels "civreg/internal/identity/models"
	"civreg/internal/reporting/models"
	"civreg/pkg/domain"
)

// IdentityReader is the slice of the identity store the aggregates read.
type IdentityReader interface {
	FindIdentity(ctx context.Context, id domain.NationalID) (identitymodels.Identity, error)
	ListIdentities(ctx context.Context) ([]identitymodels.Identity, error)
	ListTaxIDs(ctx context.Context, id domain.NationalID) ([]identitymodels.TaxID, error)
	ListVoterRecords(ctx context.Context, id domain.NationalID) ([]identitymodels.VoterRecord, error)
	ListSimRecords(ctx context.Context, id domain.NationalID) ([]identitymodels.SimRecord, error)
	ListBankAccounts(ctx context.Context, id domain.NationalID) ([]identitymodels.BankAccount, error)
}

// CaseReader is the slice of the case store the aggregates read.
type CaseReader interface {
	ListCases(ctx context.Context) ([]casemodels.CriminalCase, error)
	CasesForIdentity(ctx context.Context, id domain.NationalID) ([]casemodels.CriminalCase, error)
}

// AccountCounter reports account totals for the statistics screen.
type AccountCounter interface {
	CountAccounts(ctx context.Context) (citizens, admins int, err error)
}

// InMemoryStore answers aggregate queries by scanning the in-memory feature
// stores. It backs the dev-mode deployment and the unit tests.
type InMemoryStore struct {
	identities IdentityReader
	cases      CaseReader
	accounts   AccountCounter
}

func NewInMemoryStore(identities IdentityReader, cases CaseReader, accounts AccountCounter) *InMemoryStore {
	return &InMemoryStore{identities: identities, cases: cases, accounts: accounts}
}

func (s *InMemoryStore) CountsFor(ctx context.Context, id domain.NationalID) (models.ServiceCounts, error) {
	if _, err := s.identities.FindIdentity(ctx, id); err != nil {
		return models.ServiceCounts{}, err
	}
	return s.countsFor(ctx, id)
}

func (s *InMemoryStore) countsFor(ctx context.Context, id domain.NationalID) (models.ServiceCounts, error) {
	counts := models.ServiceCounts{NationalID: id}

	taxIDs, err := s.identities.ListTaxIDs(ctx, id)
	if err != nil {
		return models.ServiceCounts{}, err
	}
	counts.TaxIDs = len(taxIDs)

	voters, err := s.identities.ListVoterRecords(ctx, id)
	if err != nil {
		return models.ServiceCounts{}, err
	}
	counts.VoterRecords = len(voters)

	sims, err := s.identities.ListSimRecords(ctx, id)
	if err != nil {
		return models.ServiceCounts{}, err
	}
	counts.SimRecords = len(sims)

	banks, err := s.identities.ListBankAccounts(ctx, id)
	if err != nil {
		return models.ServiceCounts{}, err
	}
	counts.BankAccounts = len(banks)

	cases, err := s.cases.CasesForIdentity(ctx, id)
	if err != nil {
		return models.ServiceCounts{}, err
	}
	counts.CriminalCases = len(cases)

	return counts, nil
}

func (s *InMemoryStore) WithMinimumRecords(ctx context.Context, kind domain.RecordKind, min int) ([]models.IdentityCount, error) {
	identities, err := s.identities.ListIdentities(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.IdentityCount, 0)
	for _, identity := range identities {
		counts, err := s.countsFor(ctx, identity.NationalID)
		if err != nil {
			return nil, err
		}
		if n := counts.Of(kind); n >= min {
			out = append(out, models.IdentityCount{
				NationalID: identity.NationalID,
				Name:       identity.Name,
				Count:      n,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *InMemoryStore) CombinedCounts(ctx context.Context, primary, secondary domain.RecordKind) ([]models.CombinedCount, error) {
	identities, err := s.identities.ListIdentities(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.CombinedCount, 0, len(identities))
	for _, identity := range identities {
		counts, err := s.countsFor(ctx, identity.NationalID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.CombinedCount{
			NationalID:     identity.NationalID,
			Name:           identity.Name,
			PrimaryCount:   counts.Of(primary),
			SecondaryCount: counts.Of(secondary),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Combined() != out[j].Combined() {
			return out[i].Combined() > out[j].Combined()
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *InMemoryStore) Totals(ctx context.Context) (models.Totals, error) {
	identities, err := s.identities.ListIdentities(ctx)
	if err != nil {
		return models.Totals{}, err
	}

	totals := models.Totals{
		Identities: len(identities),
		Records: map[domain.RecordKind]int{
			domain.KindTaxID:        0,
			domain.KindVoterRecord:  0,
			domain.KindSimRecord:    0,
			domain.KindBankAccount:  0,
			domain.KindCriminalCase: 0,
		},
	}

	for _, identity := range identities {
		counts, err := s.countsFor(ctx, identity.NationalID)
		if err != nil {
			return models.Totals{}, err
		}
		totals.Records[domain.KindTaxID] += counts.TaxIDs
		totals.Records[domain.KindVoterRecord] += counts.VoterRecords
		totals.Records[domain.KindSimRecord] += counts.SimRecords
		totals.Records[domain.KindBankAccount] += counts.BankAccounts
	}

	// Case totals count case records, not links: a case tied to three
	// identities is still one case.
	cases, err := s.cases.ListCases(ctx)
	if err != nil {
		return models.Totals{}, err
	}
	totals.Records[domain.KindCriminalCase] = len(cases)

	totals.CitizenAccounts, totals.AdminAccounts, err = s.accounts.CountAccounts(ctx)
	if err != nil {
		return models.Totals{}, err
	}
	return totals, nil
}
