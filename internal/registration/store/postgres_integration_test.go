//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountmodels "civreg/internal/account/models"
	accountstore "civreg/internal/account/store"
	"civreg/internal/platform/postgres"
	"civreg/internal/registration/models"
	"civreg/pkg/domain"
	"civreg/pkg/platform/sentinel"
	"civreg/pkg/testutil/containers"
)

func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.NewPostgresContainer(t)
	db, err := postgres.Open(pg.URL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// reviewed_by references admin_accounts.
	accounts := accountstore.NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC()
	for _, username := range []string{"admin-1", "admin-2"} {
		require.NoError(t, accounts.InsertAdmin(ctx, accountmodels.AdminAccount{
			Username:     username,
			PasswordHash: "x",
			DisplayName:  "Reviewer",
			CreatedAt:    now,
		}))
	}
	return NewPostgresStore(db)
}

func pendingRequest(username, nationalID string) models.RegistrationRequest {
	return models.RegistrationRequest{
		Username:     username,
		PasswordHash: "$2a$10$fakefakefakefakefakefakefakefakefakefakefakefakefake",
		NationalID:   domain.NationalID(nationalID),
		Name:         "Asha Verma",
		Gender:       domain.GenderFemale,
		BirthDate:    time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		Mobile:       domain.Phone("9876543210"),
		SubmittedAt:  time.Now().UTC().Truncate(time.Second),
		Status:       domain.StatusPending,
	}
}

func TestPostgresReviewGuard(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	req, err := store.Insert(ctx, pendingRequest("asha", "123456789012"))
	require.NoError(t, err)
	require.NotZero(t, req.RequestID)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.MarkReviewed(ctx, req.RequestID, domain.StatusApproved, "admin-1", now, ""))

	// A second review attempt loses to the conditional update.
	err = store.MarkReviewed(ctx, req.RequestID, domain.StatusRejected, "admin-2", now, "too late")
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)

	// A review of a nonexistent request is a different failure.
	err = store.MarkReviewed(ctx, 9999, domain.StatusApproved, "admin-1", now, "")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	reviewed, err := store.Find(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, reviewed.Status)
	assert.Equal(t, "admin-1", reviewed.ReviewedBy)
}

func TestPostgresPendingDuplicate(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, pendingRequest("asha", "123456789012"))
	require.NoError(t, err)

	_, err = store.Insert(ctx, pendingRequest("asha", "210987654321"))
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}
