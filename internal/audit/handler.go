package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/httputil"
	"civreg/pkg/requestcontext"
)

// Reader is the read-only slice of the audit service the handler uses.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Handler serves the recent-activity view. Mounted admin-only.
type Handler struct {
	logger  *slog.Logger
	service Reader
}

func NewHandler(svc Reader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.handleRecent)
}

type entryResponse struct {
	ID        int64  `json:"id"`
	EventID   string `json:"event_id"`
	Operation string `json:"operation"`
	Table     string `json:"table"`
	RecordID  string `json:"record_id"`
	Actor     string `json:"actor"`
	Role      string `json:"role"`
	Detail    string `json:"detail"`
	CreatedAt string `json:"created_at"`
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list audit entries",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entryResponse{
			ID:        entry.ID,
			EventID:   entry.EventID.String(),
			Operation: entry.Operation,
			Table:     entry.Table,
			RecordID:  entry.RecordID,
			Actor:     entry.Actor,
			Role:      entry.Role.String(),
			Detail:    entry.Detail,
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]entryResponse{"entries": out})
}
