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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civreg/internal/audit"
	"civreg/internal/identity/service"
	"civreg/internal/identity/store"
	"civreg/pkg/domain"
	txcontext "civreg/pkg/platform/tx"
	"civreg/pkg/requestcontext"
)

type noopUnlinker struct{}

func (noopUnlinker) UnlinkIdentity(context.Context, domain.NationalID) (int, error) { return 0, nil }

type noopRemover struct{}

func (noopRemover) RemoveByNationalID(context.Context, domain.NationalID) error { return nil }

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditSvc := audit.NewService(audit.NewInMemoryStore(), nil)
	svc := service.NewService(store.NewInMemoryStore(), auditSvc, txcontext.Passthrough{}, noopUnlinker{}, noopRemover{}, nil, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithTime(req.Context(), time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
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

func createTestIdentity(t *testing.T, r chi.Router, nationalID string) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/identities", map[string]string{
		"national_id": nationalID,
		"name":        "Asha Verma",
		"gender":      "F",
		"birth_date":  "1990-06-15",
		"mobile":      "9876543210",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHandleCreateIdentity(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/identities", map[string]string{
		"national_id": "123456789012",
		"name":        "Asha Verma",
		"gender":      "F",
		"birth_date":  "1990-06-15",
		"mobile":      "9876543210",
		"email":       "asha@example.org",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "123456789012", resp["national_id"])
	assert.Equal(t, "F", resp["gender"])
	assert.Equal(t, "1990-06-15", resp["birth_date"])
}

func TestHandleCreateIdentityValidation(t *testing.T) {
	r := newTestRouter(t)

	cases := map[string]map[string]string{
		"short national id": {
			"national_id": "12345", "name": "A", "gender": "F", "birth_date": "1990-06-15", "mobile": "9876543210",
		},
		"future birth date": {
			"national_id": "123456789012", "name": "A", "gender": "F", "birth_date": "2026-03-02", "mobile": "9876543210",
		},
		"bad gender": {
			"national_id": "123456789012", "name": "A", "gender": "X", "birth_date": "1990-06-15", "mobile": "9876543210",
		},
		"bad mobile": {
			"national_id": "123456789012", "name": "A", "gender": "F", "birth_date": "1990-06-15", "mobile": "12345",
		},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/identities", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestHandleCreateIdentityDuplicate(t *testing.T) {
	r := newTestRouter(t)
	createTestIdentity(t, r, "123456789012")

	w := doJSON(t, r, http.MethodPost, "/identities", map[string]string{
		"national_id": "123456789012",
		"name":        "Someone Else",
		"gender":      "M",
		"birth_date":  "1985-01-01",
		"mobile":      "9123456789",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestHandleGetProfile(t *testing.T) {
	r := newTestRouter(t)
	createTestIdentity(t, r, "123456789012")

	w := doJSON(t, r, http.MethodPost, "/identities/123456789012/tax-ids", map[string]string{
		"code":       "ABCDE1234F",
		"issue_date": "2015-04-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/identities/123456789012", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	identity := resp["identity"].(map[string]any)
	assert.Equal(t, "123456789012", identity["national_id"])
	assert.Equal(t, false, resp["has_photo"])
	assert.Len(t, resp["tax_ids"].([]any), 1)
	assert.Empty(t, resp["voter_records"].([]any))
}

func TestHandleGetProfileNotFound(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/identities/000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleUpdateContact(t *testing.T) {
	r := newTestRouter(t)
	createTestIdentity(t, r, "123456789012")

	w := doJSON(t, r, http.MethodPut, "/identities/123456789012/contact", map[string]string{
		"mobile": "9123456789",
		"email":  "asha@example.org",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "9123456789", resp["mobile"])
	assert.Equal(t, "asha@example.org", resp["email"])
}

func TestHandleDeleteIdentity(t *testing.T) {
	r := newTestRouter(t)
	createTestIdentity(t, r, "123456789012")

	w := doJSON(t, r, http.MethodDelete, "/identities/123456789012", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/identities/123456789012", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleAddVoterRecord(t *testing.T) {
	r := newTestRouter(t)
	createTestIdentity(t, r, "123456789012")

	w := doJSON(t, r, http.MethodPost, "/identities/123456789012/voter-records", map[string]string{
		"electoral_code":    "VOTER001",
		"address":           "12 Lake Road",
		"registration_type": "City",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VOTER001", resp["electoral_code"])
	assert.Equal(t, "Asha Verma", resp["holder_name"])
	assert.Equal(t, true, resp["primary"])
}

func TestHandleAddVoterRecordBadCode(t *testing.T) {
	r := newTestRouter(t)
	createTestIdentity(t, r, "123456789012")

	w := doJSON(t, r, http.MethodPost, "/identities/123456789012/voter-records", map[string]string{
		"electoral_code":    "EPIC0001",
		"address":           "12 Lake Road",
		"registration_type": "City",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestHandleRemoveSimRecord(t *testing.T) {
	r := newTestRouter(t)
	createTestIdentity(t, r, "123456789012")

	w := doJSON(t, r, http.MethodPost, "/identities/123456789012/sim-records", map[string]string{
		"sim_number": "9000000001",
		"provider":   "Airtel",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodDelete, "/sim-records/9000000001", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/sim-records/9000000001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlePhotoRoundTrip(t *testing.T) {
	r := newTestRouter(t)
	createTestIdentity(t, r, "123456789012")

	w := doJSON(t, r, http.MethodPost, "/identities/123456789012/photo", map[string]string{
		"photo":  "/9j/4AAQ",
		"format": "jpeg",
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/identities/123456789012/photo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = doJSON(t, r, http.MethodDelete, "/identities/123456789012/photo", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/identities/123456789012/photo", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleAddBankAccount(t *testing.T) {
	r := newTestRouter(t)
	createTestIdentity(t, r, "123456789012")

	w := doJSON(t, r, http.MethodPost, "/identities/123456789012/bank-accounts", map[string]string{
		"account_number": "1001",
		"bank_name":      "State Bank",
		"account_type":   "Savings",
		"branch_code":    "SBIN0A12345",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/identities/123456789012/bank-accounts", map[string]string{
		"account_number": "1001",
		"bank_name":      "State Bank",
		"account_type":   "Savings",
		"branch_code":    "SBIN0A12345",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}
