package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	pgerrors "civreg/internal/platform/postgres"
	"civreg/internal/registration/models"
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

func (s *PostgresStore) Insert(ctx context.Context, req models.RegistrationRequest) (models.RegistrationRequest, error) {
	query := `
		INSERT INTO registration_requests
			(username, password_hash, national_id, name, gender, birth_date, mobile, email, submitted_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)
		RETURNING request_id
	`
	err := s.exec(ctx).QueryRowContext(ctx, query,
		req.Username,
		req.PasswordHash,
		req.NationalID.String(),
		req.Name,
		req.Gender.String(),
		req.BirthDate,
		req.Mobile.String(),
		req.Email,
		req.SubmittedAt,
		req.Status.String(),
	).Scan(&req.RequestID)
	if err != nil {
		return models.RegistrationRequest{}, pgerrors.MapError(err)
	}
	return req, nil
}

const requestColumns = `
	request_id, username, password_hash, national_id, name, gender, birth_date,
	mobile, COALESCE(email, ''), submitted_at, status,
	COALESCE(reviewed_by, ''), reviewed_at, COALESCE(rejection_reason, '')
`

func (s *PostgresStore) Find(ctx context.Context, requestID int64) (models.RegistrationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM registration_requests WHERE request_id = $1`
	return scanRequest(s.exec(ctx).QueryRowContext(ctx, query, requestID))
}

// ListPending reads through the pending_queue ordering: oldest submission
// first, request id as the tiebreak.
func (s *PostgresStore) ListPending(ctx context.Context) ([]models.RegistrationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM registration_requests
		WHERE status = 'Pending'
		ORDER BY submitted_at ASC, request_id ASC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pending requests: %w", err)
	}
	defer rows.Close()

	var out []models.RegistrationRequest
	for rows.Next() {
		req, err := scanRequestRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkReviewed(ctx context.Context, requestID int64, status domain.RequestStatus, reviewedBy string, reviewedAt time.Time, reason string) error {
	query := `
		UPDATE registration_requests
		SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = NULLIF($5, '')
		WHERE request_id = $1 AND status = 'Pending'
	`
	res, err := s.exec(ctx).ExecContext(ctx, query, requestID, status.String(), reviewedBy, reviewedAt, reason)
	if err != nil {
		return pgerrors.MapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Zero rows: either the request does not exist or it left Pending already.
	if _, err := s.Find(ctx, requestID); err != nil {
		return err
	}
	return sentinel.ErrInvalidState
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT status, COUNT(*) FROM registration_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query request counts: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.RequestStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan request count: %w", err)
		}
		out[domain.RequestStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate request counts: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row *sql.Row) (models.RegistrationRequest, error) {
	req, err := scanInto(row)
	if err != nil {
		return models.RegistrationRequest{}, pgerrors.MapError(err)
	}
	return req, nil
}

func scanRequestRow(rows *sql.Rows) (models.RegistrationRequest, error) {
	req, err := scanInto(rows)
	if err != nil {
		return models.RegistrationRequest{}, fmt.Errorf("scan request: %w", err)
	}
	return req, nil
}

func scanInto(sc rowScanner) (models.RegistrationRequest, error) {
	var (
		req        models.RegistrationRequest
		nid        string
		gender     string
		mobile     string
		status     string
		reviewedAt sql.NullTime
	)
	err := sc.Scan(
		&req.RequestID, &req.Username, &req.PasswordHash, &nid, &req.Name,
		&gender, &req.BirthDate, &mobile, &req.Email, &req.SubmittedAt,
		&status, &req.ReviewedBy, &reviewedAt, &req.RejectionReason,
	)
	if err != nil {
		return models.RegistrationRequest{}, err
	}
	req.NationalID = domain.NationalID(nid)
	req.Gender = domain.Gender(gender)
	req.Mobile = domain.Phone(mobile)
	req.Status = domain.RequestStatus(status)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		req.ReviewedAt = &t
	}
	return req, nil
}
