package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civreg/internal/audit"
	"civreg/internal/cases/service"
	"civreg/internal/cases/store"
	"civreg/pkg/domain"
	txcontext "civreg/pkg/platform/tx"
)

type staticChecker map[domain.NationalID]bool

func (c staticChecker) Exists(_ context.Context, id domain.NationalID) (bool, error) {
	return c[id], nil
}

func newTestRouter(t *testing.T, known ...domain.NationalID) chi.Router {
	t.Helper()
	checker := staticChecker{}
	for _, id := range known {
		checker[id] = true
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditSvc := audit.NewService(audit.NewInMemoryStore(), nil)
	svc := service.NewService(store.NewInMemoryStore(), auditSvc, txcontext.Passthrough{}, checker, logger)

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleCreateCase(t *testing.T) {
	r := newTestRouter(t, "123456789012")

	w := doJSON(t, r, http.MethodPost, "/cases", map[string]any{
		"offence":      "theft",
		"national_ids": []string{"123456789012"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["case_number"])
	assert.Equal(t, "theft", resp["offence"])
	assert.Len(t, resp["linked_identities"].([]any), 1)
}

func TestHandleCreateCaseUnknownIdentity(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/cases", map[string]any{
		"offence":      "theft",
		"national_ids": []string{"123456789012"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestHandleLinkUnlink(t *testing.T) {
	r := newTestRouter(t, "123456789012")

	w := doJSON(t, r, http.MethodPost, "/cases", map[string]any{"offence": "fraud"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/cases/1/links", map[string]string{"national_id": "123456789012"})
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/cases/1/links", map[string]string{"national_id": "123456789012"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/cases/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["linked_identities"].([]any), 1)

	w = doJSON(t, r, http.MethodDelete, "/cases/1/links/123456789012", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/cases/1/links/123456789012", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetCaseBadNumber(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/cases/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCasesForIdentity(t *testing.T) {
	r := newTestRouter(t, "123456789012")

	w := doJSON(t, r, http.MethodPost, "/cases", map[string]any{
		"offence":      "theft",
		"national_ids": []string{"123456789012"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/identities/123456789012/cases", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["cases"].([]any), 1)

	w = doJSON(t, r, http.MethodGet, "/identities/000000000000/cases", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
