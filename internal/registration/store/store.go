// Package store persists registration requests.
package store

import (
	"context"
	"time"

	"civreg/internal/registration/models"
	"civreg/pkg/domain"
)

// Store is the persistence port for the registration workflow.
//
// MarkReviewed is the workflow's re-entrancy guard: it transitions a request
// out of Pending conditionally and reports sentinel.ErrInvalidState when the
// request was already reviewed, so two concurrent reviewers cannot both win.
type Store interface {
	// Insert stores a new pending request and returns it with the assigned
	// id. Colliding with another pending request on username, national id or
	// email is a conflict.
	Insert(ctx context.Context, req models.RegistrationRequest) (models.RegistrationRequest, error)
	Find(ctx context.Context, requestID int64) (models.RegistrationRequest, error)
	// ListPending returns pending requests oldest first.
	ListPending(ctx context.Context) ([]models.RegistrationRequest, error)
	MarkReviewed(ctx context.Context, requestID int64, status domain.RequestStatus, reviewedBy string, reviewedAt time.Time, reason string) error
	// CountByStatus returns request counts keyed by workflow status.
	CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error)
}
