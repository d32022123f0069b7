package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"civreg/internal/account/models"
	pgerrors "civreg/internal/platform/postgres"
	"civreg/pkg/domain"
	"civreg/pkg/platform/sentinel"
	txcontext "civreg/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) exec(ctx context.Context) txcontext.Querier {
	return txcontext.Executor(ctx, s.db)
}

func (s *PostgresStore) InsertCitizen(ctx context.Context, account models.CitizenAccount) error {
	query := `
		INSERT INTO citizen_accounts (username, password_hash, national_id, status, failed_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		account.Username,
		account.PasswordHash,
		account.NationalID.String(),
		account.Status.String(),
		account.FailedAttempts,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return nil
}

const citizenColumns = `username, password_hash, national_id, status, failed_attempts, created_at, updated_at`

func (s *PostgresStore) FindCitizen(ctx context.Context, username string) (models.CitizenAccount, error) {
	query := `SELECT ` + citizenColumns + ` FROM citizen_accounts WHERE lower(username) = lower($1)`
	return s.scanCitizen(s.exec(ctx).QueryRowContext(ctx, query, username))
}

func (s *PostgresStore) FindCitizenByNationalID(ctx context.Context, id domain.NationalID) (models.CitizenAccount, error) {
	query := `SELECT ` + citizenColumns + ` FROM citizen_accounts WHERE national_id = $1`
	return s.scanCitizen(s.exec(ctx).QueryRowContext(ctx, query, id.String()))
}

func (s *PostgresStore) UpdateCitizenLoginState(ctx context.Context, username string, failedAttempts int, status domain.AccountStatus, now time.Time) error {
	query := `
		UPDATE citizen_accounts
		SET failed_attempts = $2, status = $3, updated_at = $4
		WHERE lower(username) = lower($1)
	`
	res, err := s.exec(ctx).ExecContext(ctx, query, username, failedAttempts, status.String(), now)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteCitizenByNationalID(ctx context.Context, id domain.NationalID) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM citizen_accounts WHERE national_id = $1`, id.String())
	if err != nil {
		return pgerrors.MapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM citizen_accounts WHERE lower(username) = lower($1))`,
		username,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return taken, nil
}

func (s *PostgresStore) InsertAdmin(ctx context.Context, account models.AdminAccount) error {
	query := `
		INSERT INTO admin_accounts (username, password_hash, display_name, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		account.Username, account.PasswordHash, account.DisplayName, account.CreatedAt)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return nil
}

func (s *PostgresStore) FindAdmin(ctx context.Context, username string) (models.AdminAccount, error) {
	var account models.AdminAccount
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT username, password_hash, display_name, created_at FROM admin_accounts WHERE lower(username) = lower($1)`,
		username,
	).Scan(&account.Username, &account.PasswordHash, &account.DisplayName, &account.CreatedAt)
	if err != nil {
		return models.AdminAccount{}, pgerrors.MapError(err)
	}
	return account, nil
}

func (s *PostgresStore) CountAccounts(ctx context.Context) (int, int, error) {
	var citizens, admins int
	err := s.exec(ctx).QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM citizen_accounts),
			(SELECT COUNT(*) FROM admin_accounts)
	`).Scan(&citizens, &admins)
	if err != nil {
		return 0, 0, fmt.Errorf("count accounts: %w", err)
	}
	return citizens, admins, nil
}

func (s *PostgresStore) scanCitizen(row *sql.Row) (models.CitizenAccount, error) {
	var (
		account models.CitizenAccount
		nid     string
		status  string
	)
	err := row.Scan(&account.Username, &account.PasswordHash, &nid, &status,
		&account.FailedAttempts, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return models.CitizenAccount{}, pgerrors.MapError(err)
	}
	account.NationalID = domain.NationalID(nid)
	account.Status = domain.AccountStatus(status)
	return account, nil
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
