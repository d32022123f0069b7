package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civreg/pkg/domain"
	"civreg/pkg/requestcontext"
)

func newAuditRouter(t *testing.T) (http.Handler, *Service) {
	t.Helper()
	svc := NewService(NewInMemoryStore(), nil)
	r := chi.NewRouter()
	NewHandler(svc, nil).Register(r)
	return r, svc
}

func seedEntries(t *testing.T, svc *Service, n int) {
	t.Helper()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		ctx := requestcontext.WithActor(context.Background(),
			requestcontext.Principal{ID: "admin-1", Role: domain.RoleAdmin})
		ctx = requestcontext.WithTime(ctx, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, svc.Log(ctx, OpCreate, TableIdentities, fmt.Sprintf("rec-%d", i), "seeded"))
	}
}

func TestRecentEntriesNewestFirst(t *testing.T) {
	router, svc := newAuditRouter(t)
	seedEntries(t, svc, 3)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string][]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	entries := body["entries"]
	require.Len(t, entries, 3)
	assert.Equal(t, "rec-2", entries[0]["record_id"])
	assert.Equal(t, "rec-0", entries[2]["record_id"])
	assert.Equal(t, "Admin", entries[0]["role"])
}

func TestRecentEntriesLimit(t *testing.T) {
	router, svc := newAuditRouter(t)
	seedEntries(t, svc, 5)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body["entries"], 2)
}

func TestRecentEntriesBadLimit(t *testing.T) {
	router, _ := newAuditRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
