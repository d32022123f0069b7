package store

import (
	"context"
	"database/sql"
	"fmt"

	"civreg/internal/cases/models"
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

func (s *PostgresStore) InsertCase(ctx context.Context, c models.CriminalCase) (models.CriminalCase, error) {
	query := `
		INSERT INTO criminal_cases (offence, created_at)
		VALUES ($1, $2)
		RETURNING case_number
	`
	err := s.exec(ctx).QueryRowContext(ctx, query, c.Offence, c.CreatedAt).Scan(&c.CaseNumber)
	if err != nil {
		return models.CriminalCase{}, pgerrors.MapError(err)
	}
	return c, nil
}

func (s *PostgresStore) FindCase(ctx context.Context, caseNumber int64) (models.CriminalCase, error) {
	var c models.CriminalCase
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT case_number, offence, created_at FROM criminal_cases WHERE case_number = $1`,
		caseNumber,
	).Scan(&c.CaseNumber, &c.Offence, &c.CreatedAt)
	if err != nil {
		return models.CriminalCase{}, pgerrors.MapError(err)
	}
	return c, nil
}

func (s *PostgresStore) ListCases(ctx context.Context) ([]models.CriminalCase, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT case_number, offence, created_at FROM criminal_cases ORDER BY case_number ASC`)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	var out []models.CriminalCase
	for rows.Next() {
		var c models.CriminalCase
		if err := rows.Scan(&c.CaseNumber, &c.Offence, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteCase(ctx context.Context, caseNumber int64) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM criminal_cases WHERE case_number = $1`, caseNumber)
	if err != nil {
		return pgerrors.MapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Link(ctx context.Context, caseNumber int64, id domain.NationalID) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO case_links (case_number, national_id) VALUES ($1, $2)`,
		caseNumber, id.String())
	if err != nil {
		return pgerrors.MapError(err)
	}
	return nil
}

func (s *PostgresStore) Unlink(ctx context.Context, caseNumber int64, id domain.NationalID) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM case_links WHERE case_number = $1 AND national_id = $2`,
		caseNumber, id.String())
	if err != nil {
		return pgerrors.MapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) UnlinkAll(ctx context.Context, id domain.NationalID) (int, error) {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM case_links WHERE national_id = $1`, id.String())
	if err != nil {
		return 0, pgerrors.MapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (s *PostgresStore) LinkedIdentities(ctx context.Context, caseNumber int64) ([]domain.NationalID, error) {
	if _, err := s.FindCase(ctx, caseNumber); err != nil {
		return nil, err
	}
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT national_id FROM case_links WHERE case_number = $1 ORDER BY national_id ASC`,
		caseNumber)
	if err != nil {
		return nil, fmt.Errorf("query case links: %w", err)
	}
	defer rows.Close()

	var out []domain.NationalID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan case link: %w", err)
		}
		out = append(out, domain.NationalID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case links: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CasesForIdentity(ctx context.Context, id domain.NationalID) ([]models.CriminalCase, error) {
	query := `
		SELECT c.case_number, c.offence, c.created_at
		FROM criminal_cases c
		JOIN case_links l ON l.case_number = c.case_number
		WHERE l.national_id = $1
		ORDER BY c.case_number ASC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, fmt.Errorf("query cases for identity: %w", err)
	}
	defer rows.Close()

	var out []models.CriminalCase
	for rows.Next() {
		var c models.CriminalCase
		if err := rows.Scan(&c.CaseNumber, &c.Offence, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
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
