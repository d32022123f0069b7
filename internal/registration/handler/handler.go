// Package handler exposes the registration workflow over HTTP. Submission is
// public; review routes are admin-scoped and mounted behind authentication
// by the transport router.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"civreg/internal/registration/models"
	"civreg/internal/registration/service"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/httputil"
	"civreg/pkg/requestcontext"
)

// Service is the workflow surface the handler depends on.
type Service interface {
	Submit(ctx context.Context, in service.SubmitInput) (models.RegistrationRequest, error)
	Approve(ctx context.Context, requestID int64) (models.RegistrationRequest, error)
	Reject(ctx context.Context, requestID int64, reason string) (models.RegistrationRequest, error)
	Get(ctx context.Context, requestID int64) (models.RegistrationRequest, error)
	ListPending(ctx context.Context) ([]models.RegistrationRequest, error)
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

// RegisterPublic mounts the unauthenticated submission route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/registrations", h.handleSubmit)
}

// RegisterAdmin mounts the review routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/registrations/pending", h.handleListPending)
	r.Get("/registrations/{requestID}", h.handleGet)
	r.Post("/registrations/{requestID}/approve", h.handleApprove)
	r.Post("/registrations/{requestID}/reject", h.handleReject)
}

type submitRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	NationalID string `json:"national_id"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	BirthDate  string `json:"birth_date"`
	Mobile     string `json:"mobile"`
	Email      string `json:"email,omitempty"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type requestResponse struct {
	RequestID       int64  `json:"request_id"`
	Username        string `json:"username"`
	NationalID      string `json:"national_id"`
	Name            string `json:"name"`
	Gender          string `json:"gender"`
	BirthDate       string `json:"birth_date"`
	Mobile          string `json:"mobile"`
	Email           string `json:"email,omitempty"`
	SubmittedAt     string `json:"submitted_at"`
	Status          string `json:"status"`
	ReviewedBy      string `json:"reviewed_by,omitempty"`
	ReviewedAt      string `json:"reviewed_at,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

func toResponse(req models.RegistrationRequest) requestResponse {
	out := requestResponse{
		RequestID:       req.RequestID,
		Username:        req.Username,
		NationalID:      req.NationalID.String(),
		Name:            req.Name,
		Gender:          req.Gender.String(),
		BirthDate:       req.BirthDate.Format("2006-01-02"),
		Mobile:          req.Mobile.String(),
		Email:           req.Email,
		SubmittedAt:     req.SubmittedAt.Format(time.RFC3339),
		Status:          req.Status.String(),
		ReviewedBy:      req.ReviewedBy,
		RejectionReason: req.RejectionReason,
	}
	if req.ReviewedAt != nil {
		out.ReviewedAt = req.ReviewedAt.Format(time.RFC3339)
	}
	return out
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	nationalID, err := domain.ParseNationalID(req.NationalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	gender, err := domain.ParseGender(req.Gender)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	birthDate, err := domain.ParseBirthDate(req.BirthDate, requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	mobile, err := domain.ParsePhone(req.Mobile)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.Submit(ctx, service.SubmitInput{
		Username:   req.Username,
		Password:   req.Password,
		NationalID: nationalID,
		Name:       req.Name,
		Gender:     gender,
		BirthDate:  birthDate,
		Mobile:     mobile,
		Email:      req.Email,
	})
	if err != nil {
		h.logError(ctx, "failed to submit registration", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.service.ListPending(r.Context())
	if err != nil {
		h.logError(r.Context(), "failed to list pending registrations", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]requestResponse, 0, len(pending))
	for _, req := range pending {
		out = append(out, toResponse(req))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]requestResponse{"registrations": out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathRequestID(w, r)
	if !ok {
		return
	}
	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logError(r.Context(), "failed to load registration", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(req))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathRequestID(w, r)
	if !ok {
		return
	}
	approved, err := h.service.Approve(r.Context(), id)
	if err != nil {
		h.logError(r.Context(), "failed to approve registration", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(approved))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathRequestID(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	rejected, err := h.service.Reject(r.Context(), id, req.Reason)
	if err != nil {
		h.logError(r.Context(), "failed to reject registration", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(rejected))
}

func (h *Handler) pathRequestID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request id must be a positive integer"))
		return 0, false
	}
	return id, true
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
