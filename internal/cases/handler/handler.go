// Package handler exposes the case registry over HTTP. All routes are
// admin-scoped.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"civreg/internal/cases/models"
	"civreg/internal/cases/service"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/httputil"
	"civreg/pkg/requestcontext"
)

// Service is the case workflow surface the handler depends on.
type Service interface {
	Create(ctx context.Context, offence string, linked []domain.NationalID) (service.Detail, error)
	Get(ctx context.Context, caseNumber int64) (service.Detail, error)
	List(ctx context.Context) ([]models.CriminalCase, error)
	Delete(ctx context.Context, caseNumber int64) error
	Link(ctx context.Context, caseNumber int64, id domain.NationalID) error
	Unlink(ctx context.Context, caseNumber int64, id domain.NationalID) error
	CasesForIdentity(ctx context.Context, id domain.NationalID) ([]models.CriminalCase, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: svc}
}

// Register mounts the case routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cases", h.handleCreate)
	r.Get("/cases", h.handleList)
	r.Get("/cases/{caseNumber}", h.handleGet)
	r.Delete("/cases/{caseNumber}", h.handleDelete)
	r.Post("/cases/{caseNumber}/links", h.handleLink)
	r.Delete("/cases/{caseNumber}/links/{nationalID}", h.handleUnlink)
	r.Get("/identities/{nationalID}/cases", h.handleCasesForIdentity)
}

type createCaseRequest struct {
	Offence     string   `json:"offence"`
	NationalIDs []string `json:"national_ids,omitempty"`
}

type linkRequest struct {
	NationalID string `json:"national_id"`
}

type caseResponse struct {
	CaseNumber int64  `json:"case_number"`
	Offence    string `json:"offence"`
	CreatedAt  string `json:"created_at"`
}

type caseDetailResponse struct {
	caseResponse
	LinkedIdentities []string `json:"linked_identities"`
}

func toCaseResponse(c models.CriminalCase) caseResponse {
	return caseResponse{
		CaseNumber: c.CaseNumber,
		Offence:    c.Offence,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}
}

func toDetailResponse(d service.Detail) caseDetailResponse {
	out := caseDetailResponse{
		caseResponse:     toCaseResponse(d.Case),
		LinkedIdentities: make([]string, 0, len(d.LinkedIdentities)),
	}
	for _, id := range d.LinkedIdentities {
		out.LinkedIdentities = append(out.LinkedIdentities, id.String())
	}
	return out
}

func (h *Handler) pathCaseNumber(w http.ResponseWriter, r *http.Request) (int64, bool) {
	n, err := strconv.ParseInt(chi.URLParam(r, "caseNumber"), 10, 64)
	if err != nil || n <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "case number must be a positive integer"))
		return 0, false
	}
	return n, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	linked := make([]domain.NationalID, 0, len(req.NationalIDs))
	for _, raw := range req.NationalIDs {
		id, err := domain.ParseNationalID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		linked = append(linked, id)
	}

	detail, err := h.service.Create(r.Context(), req.Offence, linked)
	if err != nil {
		h.logError(r.Context(), "failed to create case", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDetailResponse(detail))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	cases, err := h.service.List(r.Context())
	if err != nil {
		h.logError(r.Context(), "failed to list cases", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]caseResponse, 0, len(cases))
	for _, c := range cases {
		out = append(out, toCaseResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]caseResponse{"cases": out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	n, ok := h.pathCaseNumber(w, r)
	if !ok {
		return
	}
	detail, err := h.service.Get(r.Context(), n)
	if err != nil {
		h.logError(r.Context(), "failed to load case", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDetailResponse(detail))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	n, ok := h.pathCaseNumber(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), n); err != nil {
		h.logError(r.Context(), "failed to delete case", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLink(w http.ResponseWriter, r *http.Request) {
	n, ok := h.pathCaseNumber(w, r)
	if !ok {
		return
	}
	var req linkRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := domain.ParseNationalID(req.NationalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Link(r.Context(), n, id); err != nil {
		h.logError(r.Context(), "failed to link identity to case", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUnlink(w http.ResponseWriter, r *http.Request) {
	n, ok := h.pathCaseNumber(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseNationalID(chi.URLParam(r, "nationalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Unlink(r.Context(), n, id); err != nil {
		h.logError(r.Context(), "failed to unlink identity from case", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCasesForIdentity(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseNationalID(chi.URLParam(r, "nationalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cases, err := h.service.CasesForIdentity(r.Context(), id)
	if err != nil {
		h.logError(r.Context(), "failed to list cases for identity", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]caseResponse, 0, len(cases))
	for _, c := range cases {
		out = append(out, toCaseResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]caseResponse{"cases": out})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	args := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeNotFound, dErrors.CodeConflict:
		h.logger.WarnContext(ctx, msg, args...)
	default:
		h.logger.ErrorContext(ctx, msg, args...)
	}
}
