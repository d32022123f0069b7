package audit

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "civreg/pkg/platform/tx"
)

// PostgresStore writes audit entries to the audit_log table. Append resolves
// its executor through the context so a workflow transaction carries the
// audit write with it.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO audit_log (event_id, operation, table_name, record_id, actor, actor_role, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		entry.EventID,
		entry.Operation,
		entry.Table,
		entry.RecordID,
		entry.Actor,
		entry.Role.String(),
		entry.Detail,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the limit most recent entries, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT entry_id, event_id, operation, table_name, record_id, actor, actor_role, detail, created_at
		FROM audit_log
		ORDER BY created_at DESC, entry_id DESC
		LIMIT $1
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			role string
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.Operation, &e.Table, &e.RecordID, &e.Actor, &role, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Role = roleFromDB(role)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
