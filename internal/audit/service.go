package audit

import (
	"context"

	"github.com/google/uuid"

	"civreg/internal/platform/metrics"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/requestcontext"
)

// DefaultRecentLimit caps the recent-entries view when callers pass no limit.
const DefaultRecentLimit = 100

// Service is the append-only audit sink used by every state-changing
// operation. Log must be called inside the operation's transaction: an audit
// write failure fails the whole operation, audit completeness is a
// correctness property here, not telemetry.
type Service struct {
	store   Store
	metrics *metrics.Metrics
}

func NewService(store Store, m *metrics.Metrics) *Service {
	return &Service{store: store, metrics: m}
}

// Log appends one entry attributed to the acting principal carried by ctx.
func (s *Service) Log(ctx context.Context, operation, table, recordID, detail string) error {
	actor := requestcontext.Actor(ctx)
	entry := Entry{
		EventID:   uuid.New(),
		Operation: operation,
		Table:     table,
		RecordID:  recordID,
		Actor:     actor.ID,
		Role:      actor.Role,
		Detail:    detail,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write audit entry")
	}
	if s.metrics != nil {
		s.metrics.AuditEntriesWritten.Inc()
	}
	return nil
}

// Recent returns the most recent entries, newest first. A non-positive limit
// falls back to DefaultRecentLimit.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	entries, err := s.store.Recent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries")
	}
	return entries, nil
}

func roleFromDB(role string) domain.ActorRole {
	parsed, err := domain.ParseActorRole(role)
	if err != nil {
		return domain.RoleSystem
	}
	return parsed
}
