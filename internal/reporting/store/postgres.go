package store

import (
	"context"
	"database/sql"
	"fmt"

	pgerrors "civreg/internal/platform/postgres"
	"civreg/internal/reporting/models"
	"civreg/pkg/domain"
	txcontext "civreg/pkg/platform/tx"
)

// kindTable maps a record kind onto the table counted per identity. Criminal
// cases count through the junction table, one row per link.
var kindTable = map[domain.RecordKind]string{
	domain.KindTaxID:        "tax_ids",
	domain.KindVoterRecord:  "voter_records",
	domain.KindSimRecord:    "sim_records",
	domain.KindBankAccount:  "bank_accounts",
	domain.KindCriminalCase: "case_links",
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) exec(ctx context.Context) txcontext.Querier {
	return txcontext.Executor(ctx, s.db)
}

func (s *PostgresStore) CountsFor(ctx context.Context, id domain.NationalID) (models.ServiceCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM tax_ids t WHERE t.national_id = i.national_id),
			(SELECT COUNT(*) FROM voter_records v WHERE v.national_id = i.national_id),
			(SELECT COUNT(*) FROM sim_records s WHERE s.national_id = i.national_id),
			(SELECT COUNT(*) FROM bank_accounts b WHERE b.national_id = i.national_id),
			(SELECT COUNT(*) FROM case_links c WHERE c.national_id = i.national_id)
		FROM identities i
		WHERE i.national_id = $1
	`
	counts := models.ServiceCounts{NationalID: id}
	err := s.exec(ctx).QueryRowContext(ctx, query, id.String()).Scan(
		&counts.TaxIDs, &counts.VoterRecords, &counts.SimRecords,
		&counts.BankAccounts, &counts.CriminalCases,
	)
	if err != nil {
		return models.ServiceCounts{}, pgerrors.MapError(err)
	}
	return counts, nil
}

func (s *PostgresStore) WithMinimumRecords(ctx context.Context, kind domain.RecordKind, min int) ([]models.IdentityCount, error) {
	table, ok := kindTable[kind]
	if !ok {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	query := fmt.Sprintf(`
		SELECT i.national_id, i.name, COUNT(*) AS record_count
		FROM identities i
		JOIN %s r ON r.national_id = i.national_id
		GROUP BY i.national_id, i.name
		HAVING COUNT(*) >= $1
		ORDER BY record_count DESC, i.name ASC
	`, table)

	rows, err := s.exec(ctx).QueryContext(ctx, query, min)
	if err != nil {
		return nil, fmt.Errorf("threshold query: %w", err)
	}
	defer rows.Close()

	out := make([]models.IdentityCount, 0)
	for rows.Next() {
		var (
			row models.IdentityCount
			nid string
		)
		if err := rows.Scan(&nid, &row.Name, &row.Count); err != nil {
			return nil, fmt.Errorf("scan threshold row: %w", err)
		}
		row.NationalID = domain.NationalID(nid)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CombinedCounts(ctx context.Context, primary, secondary domain.RecordKind) ([]models.CombinedCount, error) {
	primaryTable, ok := kindTable[primary]
	if !ok {
		return nil, fmt.Errorf("unknown record kind %q", primary)
	}
	secondaryTable, ok := kindTable[secondary]
	if !ok {
		return nil, fmt.Errorf("unknown record kind %q", secondary)
	}
	query := fmt.Sprintf(`
		SELECT national_id, name, primary_count, secondary_count
		FROM (
			SELECT i.national_id, i.name,
				(SELECT COUNT(*) FROM %s a WHERE a.national_id = i.national_id) AS primary_count,
				(SELECT COUNT(*) FROM %s b WHERE b.national_id = i.national_id) AS secondary_count
			FROM identities i
		) counts
		ORDER BY primary_count + secondary_count DESC, name ASC
	`, primaryTable, secondaryTable)

	rows, err := s.exec(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("combined query: %w", err)
	}
	defer rows.Close()

	out := make([]models.CombinedCount, 0)
	for rows.Next() {
		var (
			row models.CombinedCount
			nid string
		)
		if err := rows.Scan(&nid, &row.Name, &row.PrimaryCount, &row.SecondaryCount); err != nil {
			return nil, fmt.Errorf("scan combined row: %w", err)
		}
		row.NationalID = domain.NationalID(nid)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Totals(ctx context.Context) (models.Totals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM identities),
			(SELECT COUNT(*) FROM citizen_accounts),
			(SELECT COUNT(*) FROM admin_accounts),
			(SELECT COUNT(*) FROM tax_ids),
			(SELECT COUNT(*) FROM voter_records),
			(SELECT COUNT(*) FROM sim_records),
			(SELECT COUNT(*) FROM bank_accounts),
			(SELECT COUNT(*) FROM criminal_cases)
	`
	totals := models.Totals{Records: make(map[domain.RecordKind]int, 5)}
	var taxIDs, voters, sims, banks, cases int
	err := s.exec(ctx).QueryRowContext(ctx, query).Scan(
		&totals.Identities, &totals.CitizenAccounts, &totals.AdminAccounts,
		&taxIDs, &voters, &sims, &banks, &cases,
	)
	if err != nil {
		return models.Totals{}, fmt.Errorf("totals query: %w", err)
	}
	totals.Records[domain.KindTaxID] = taxIDs
	totals.Records[domain.KindVoterRecord] = voters
	totals.Records[domain.KindSimRecord] = sims
	totals.Records[domain.KindBankAccount] = banks
	totals.Records[domain.KindCriminalCase] = cases
	return totals, nil
}
