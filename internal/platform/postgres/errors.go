package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"civreg/pkg/platform/sentinel"
)

// MapError translates driver errors into storage sentinels so stores stay
// free of pq specifics at their call sites.
//
//	23505 unique_violation      -> sentinel.ErrConflict
//	23503 foreign_key_violation -> sentinel.ErrIntegrity
//	23514 check_violation       -> sentinel.ErrIntegrity
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return sentinel.ErrConflict
		case "23503":
			return sentinel.ErrIntegrity
		case "23514":
			return sentinel.ErrIntegrity
		}
	}
	return err
}
