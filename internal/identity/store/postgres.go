package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"civreg/internal/identity/models"
	pgerrors "civreg/internal/platform/postgres"
	"civreg/pkg/domain"
	"civreg/pkg/platform/sentinel"
	txcontext "civreg/pkg/platform/tx"
)

// PostgresStore persists the identity ownership tree. Writes resolve their
// executor through the context so workflow transactions carry them.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) exec(ctx context.Context) txcontext.Querier {
	return txcontext.Executor(ctx, s.db)
}

func (s *PostgresStore) InsertIdentity(ctx context.Context, identity models.Identity) error {
	query := `
		INSERT INTO identities (national_id, name, gender, birth_date, mobile, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		identity.NationalID.String(),
		identity.Name,
		identity.Gender.String(),
		identity.BirthDate,
		identity.Mobile.String(),
		identity.Email,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return nil
}

func (s *PostgresStore) InsertBiometric(ctx context.Context, bio models.Biometric) error {
	query := `
		INSERT INTO biometrics (national_id, photo, photo_format, has_photo, version, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		bio.NationalID.String(),
		bio.Photo,
		bio.PhotoFormat,
		bio.HasPhoto,
		bio.Version,
		bio.CreatedAt,
		bio.UpdatedAt,
	)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return nil
}

func (s *PostgresStore) FindIdentity(ctx context.Context, id domain.NationalID) (models.Identity, error) {
	query := `
		SELECT national_id, name, gender, birth_date, mobile, COALESCE(email, ''), created_at, updated_at
		FROM identities
		WHERE national_id = $1
	`
	return s.scanIdentity(s.exec(ctx).QueryRowContext(ctx, query, id.String()))
}

func (s *PostgresStore) ListIdentities(ctx context.Context) ([]models.Identity, error) {
	query := `
		SELECT national_id, name, gender, birth_date, mobile, COALESCE(email, ''), created_at, updated_at
		FROM identities
		ORDER BY name ASC, national_id ASC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var out []models.Identity
	for rows.Next() {
		identity, err := s.scanIdentityRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateContact(ctx context.Context, id domain.NationalID, mobile domain.Phone, email string, now time.Time) error {
	query := `
		UPDATE identities
		SET mobile = $2, email = NULLIF($3, ''), updated_at = $4
		WHERE national_id = $1
	`
	res, err := s.exec(ctx).ExecContext(ctx, query, id.String(), mobile.String(), email, now)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return requireRow(res)
}

// DeleteIdentity removes the identity row; the schema's ON DELETE CASCADE
// edges take the biometric row, service records, case links and the citizen
// account with it.
func (s *PostgresStore) DeleteIdentity(ctx context.Context, id domain.NationalID) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM identities WHERE national_id = $1`, id.String())
	if err != nil {
		return pgerrors.MapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) FindBiometric(ctx context.Context, id domain.NationalID) (models.Biometric, error) {
	query := `
		SELECT national_id, photo, COALESCE(photo_format, ''), has_photo, version, created_at, updated_at
		FROM biometrics
		WHERE national_id = $1
	`
	var (
		bio models.Biometric
		nid string
	)
	err := s.exec(ctx).QueryRowContext(ctx, query, id.String()).Scan(
		&nid, &bio.Photo, &bio.PhotoFormat, &bio.HasPhoto, &bio.Version, &bio.CreatedAt, &bio.UpdatedAt,
	)
	if err != nil {
		return models.Biometric{}, pgerrors.MapError(err)
	}
	bio.NationalID = domain.NationalID(nid)
	return bio, nil
}

func (s *PostgresStore) AttachPhoto(ctx context.Context, id domain.NationalID, photo []byte, format string, now time.Time) error {
	query := `
		UPDATE biometrics
		SET photo = $2, photo_format = NULLIF($3, ''), has_photo = TRUE, version = version + 1, updated_at = $4
		WHERE national_id = $1
	`
	res, err := s.exec(ctx).ExecContext(ctx, query, id.String(), photo, format, now)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ClearPhoto(ctx context.Context, id domain.NationalID, now time.Time) error {
	query := `
		UPDATE biometrics
		SET photo = NULL, photo_format = NULL, has_photo = FALSE, version = version + 1, updated_at = $2
		WHERE national_id = $1
	`
	res, err := s.exec(ctx).ExecContext(ctx, query, id.String(), now)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) InsertTaxID(ctx context.Context, rec models.TaxID) error {
	query := `INSERT INTO tax_ids (code, issue_date, status, national_id) VALUES ($1, $2, $3, $4)`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		rec.Code.String(), rec.IssueDate, rec.Status, rec.NationalID.String(),
	)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return nil
}

func (s *PostgresStore) ListTaxIDs(ctx context.Context, id domain.NationalID) ([]models.TaxID, error) {
	query := `
		SELECT code, issue_date, status, national_id
		FROM tax_ids
		WHERE national_id = $1
		ORDER BY code ASC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, fmt.Errorf("query tax ids: %w", err)
	}
	defer rows.Close()

	var out []models.TaxID
	for rows.Next() {
		var (
			rec  models.TaxID
			code string
			nid  string
		)
		if err := rows.Scan(&code, &rec.IssueDate, &rec.Status, &nid); err != nil {
			return nil, fmt.Errorf("scan tax id: %w", err)
		}
		rec.Code = domain.TaxCode(code)
		rec.NationalID = domain.NationalID(nid)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tax ids: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteTaxID(ctx context.Context, code domain.TaxCode) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM tax_ids WHERE code = $1`, code.String())
	if err != nil {
		return pgerrors.MapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) InsertVoterRecord(ctx context.Context, rec models.VoterRecord) error {
	query := `
		INSERT INTO voter_records (electoral_code, national_id, holder_name, address, registration_type, issue_date, status, is_primary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		rec.ElectoralCode.String(),
		rec.NationalID.String(),
		rec.HolderName,
		rec.Address,
		rec.RegistrationType.String(),
		rec.IssueDate,
		rec.Status,
		rec.Primary,
	)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return nil
}

func (s *PostgresStore) ListVoterRecords(ctx context.Context, id domain.NationalID) ([]models.VoterRecord, error) {
	query := `
		SELECT electoral_code, national_id, holder_name, address, registration_type, issue_date, status, is_primary
		FROM voter_records
		WHERE national_id = $1
		ORDER BY electoral_code ASC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, fmt.Errorf("query voter records: %w", err)
	}
	defer rows.Close()

	var out []models.VoterRecord
	for rows.Next() {
		var (
			rec     models.VoterRecord
			code    string
			nid     string
			regType string
		)
		if err := rows.Scan(&code, &nid, &rec.HolderName, &rec.Address, &regType, &rec.IssueDate, &rec.Status, &rec.Primary); err != nil {
			return nil, fmt.Errorf("scan voter record: %w", err)
		}
		rec.ElectoralCode = domain.ElectoralCode(code)
		rec.NationalID = domain.NationalID(nid)
		rec.RegistrationType = domain.RegistrationType(regType)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voter records: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteVoterRecord(ctx context.Context, code domain.ElectoralCode) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM voter_records WHERE electoral_code = $1`, code.String())
	if err != nil {
		return pgerrors.MapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) InsertSimRecord(ctx context.Context, rec models.SimRecord) error {
	query := `INSERT INTO sim_records (sim_number, provider, status, national_id) VALUES ($1, $2, $3, $4)`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		rec.SimNumber.String(), rec.Provider, rec.Status, rec.NationalID.String(),
	)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return nil
}

func (s *PostgresStore) ListSimRecords(ctx context.Context, id domain.NationalID) ([]models.SimRecord, error) {
	query := `
		SELECT sim_number, provider, status, national_id
		FROM sim_records
		WHERE national_id = $1
		ORDER BY sim_number ASC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, fmt.Errorf("query sim records: %w", err)
	}
	defer rows.Close()

	var out []models.SimRecord
	for rows.Next() {
		var (
			rec models.SimRecord
			sim string
			nid string
		)
		if err := rows.Scan(&sim, &rec.Provider, &rec.Status, &nid); err != nil {
			return nil, fmt.Errorf("scan sim record: %w", err)
		}
		rec.SimNumber = domain.SimNumber(sim)
		rec.NationalID = domain.NationalID(nid)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sim records: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteSimRecord(ctx context.Context, sim domain.SimNumber) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM sim_records WHERE sim_number = $1`, sim.String())
	if err != nil {
		return pgerrors.MapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) InsertBankAccount(ctx context.Context, rec models.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (account_number, bank_name, account_type, branch_code, national_id)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		rec.AccountNumber, rec.BankName, rec.AccountType, rec.BranchCode.String(), rec.NationalID.String(),
	)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return nil
}

func (s *PostgresStore) ListBankAccounts(ctx context.Context, id domain.NationalID) ([]models.BankAccount, error) {
	query := `
		SELECT account_number, bank_name, account_type, branch_code, national_id
		FROM bank_accounts
		WHERE national_id = $1
		ORDER BY bank_name ASC, account_number ASC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, fmt.Errorf("query bank accounts: %w", err)
	}
	defer rows.Close()

	var out []models.BankAccount
	for rows.Next() {
		var (
			rec    models.BankAccount
			branch string
			nid    string
		)
		if err := rows.Scan(&rec.AccountNumber, &rec.BankName, &rec.AccountType, &branch, &nid); err != nil {
			return nil, fmt.Errorf("scan bank account: %w", err)
		}
		rec.BranchCode = domain.BranchCode(branch)
		rec.NationalID = domain.NationalID(nid)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bank accounts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteBankAccount(ctx context.Context, accountNumber, bankName string) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM bank_accounts WHERE account_number = $1 AND bank_name = $2`,
		accountNumber, bankName,
	)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) EmailInUse(ctx context.Context, email string, exclude domain.NationalID) (bool, error) {
	if email == "" {
		return false, nil
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM identities
			WHERE lower(email) = lower($1) AND national_id <> $2
		)
	`
	var inUse bool
	if err := s.exec(ctx).QueryRowContext(ctx, query, email, exclude.String()).Scan(&inUse); err != nil {
		return false, fmt.Errorf("check email in use: %w", err)
	}
	return inUse, nil
}

func (s *PostgresStore) scanIdentity(row *sql.Row) (models.Identity, error) {
	var (
		identity models.Identity
		nid      string
		gender   string
	)
	err := row.Scan(&nid, &identity.Name, &gender, &identity.BirthDate, &identity.Mobile, &identity.Email, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		return models.Identity{}, pgerrors.MapError(err)
	}
	identity.NationalID = domain.NationalID(nid)
	identity.Gender = domain.Gender(gender)
	return identity, nil
}

func (s *PostgresStore) scanIdentityRow(rows *sql.Rows) (models.Identity, error) {
	var (
		identity models.Identity
		nid      string
		gender   string
	)
	err := rows.Scan(&nid, &identity.Name, &gender, &identity.BirthDate, &identity.Mobile, &identity.Email, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		return models.Identity{}, fmt.Errorf("scan identity: %w", err)
	}
	identity.NationalID = domain.NationalID(nid)
	identity.Gender = domain.Gender(gender)
	return identity, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
