// Package handler exposes the reporting queries over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"civreg/internal/reporting/models"
	"civreg/internal/reporting/service"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/httputil"
	"civreg/pkg/requestcontext"
)

// Service is the reporting surface the handler depends on.
type Service interface {
	ServiceCounts(ctx context.Context, id domain.NationalID) (models.ServiceCounts, error)
	WithMinimumRecords(ctx context.Context, kind domain.RecordKind, min int) ([]models.IdentityCount, error)
	MaxCombined(ctx context.Context, primary, secondary domain.RecordKind, single bool) ([]models.CombinedCount, error)
	Statistics(ctx context.Context) (service.Statistics, error)
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

func (h *Handler) Register(r chi.Router) {
	r.Get("/identities/{nationalID}/counts", h.handleServiceCounts)
	r.Get("/reports/min-records", h.handleMinRecords)
	r.Get("/reports/max-combined", h.handleMaxCombined)
}

// RegisterAdmin mounts the statistics screen endpoint.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/statistics", h.handleStatistics)
}

type serviceCountsResponse struct {
	NationalID    string `json:"national_id"`
	TaxIDs        int    `json:"tax_ids"`
	VoterRecords  int    `json:"voter_records"`
	SimRecords    int    `json:"sim_records"`
	BankAccounts  int    `json:"bank_accounts"`
	CriminalCases int    `json:"criminal_cases"`
}

type identityCountResponse struct {
	NationalID string `json:"national_id"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

type combinedCountResponse struct {
	NationalID     string `json:"national_id"`
	Name           string `json:"name"`
	PrimaryCount   int    `json:"primary_count"`
	SecondaryCount int    `json:"secondary_count"`
	Combined       int    `json:"combined"`
}

type statisticsResponse struct {
	Identities      int            `json:"identities"`
	CitizenAccounts int            `json:"citizen_accounts"`
	AdminAccounts   int            `json:"admin_accounts"`
	Records         map[string]int `json:"records"`
	Registrations   map[string]int `json:"registrations"`
}

func (h *Handler) handleServiceCounts(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseNationalID(chi.URLParam(r, "nationalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	counts, err := h.service.ServiceCounts(r.Context(), id)
	if err != nil {
		h.logError(r.Context(), "failed to count service records", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, serviceCountsResponse{
		NationalID:    counts.NationalID.String(),
		TaxIDs:        counts.TaxIDs,
		VoterRecords:  counts.VoterRecords,
		SimRecords:    counts.SimRecords,
		BankAccounts:  counts.BankAccounts,
		CriminalCases: counts.CriminalCases,
	})
}

func (h *Handler) handleMinRecords(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseRecordKind(r.URL.Query().Get("kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	min, err := strconv.Atoi(r.URL.Query().Get("min"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "min must be an integer"))
		return
	}

	rows, err := h.service.WithMinimumRecords(r.Context(), kind, min)
	if err != nil {
		h.logError(r.Context(), "threshold report failed", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]identityCountResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, identityCountResponse{
			NationalID: row.NationalID.String(),
			Name:       row.Name,
			Count:      row.Count,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]identityCountResponse{"identities": out})
}

func (h *Handler) handleMaxCombined(w http.ResponseWriter, r *http.Request) {
	primary, err := domain.ParseRecordKind(r.URL.Query().Get("primary"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	secondary, err := domain.ParseRecordKind(r.URL.Query().Get("secondary"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	single := r.URL.Query().Get("single") == "true"

	rows, err := h.service.MaxCombined(r.Context(), primary, secondary, single)
	if err != nil {
		h.logError(r.Context(), "combined report failed", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]combinedCountResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, combinedCountResponse{
			NationalID:     row.NationalID.String(),
			Name:           row.Name,
			PrimaryCount:   row.PrimaryCount,
			SecondaryCount: row.SecondaryCount,
			Combined:       row.Combined(),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]combinedCountResponse{"identities": out})
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		h.logError(r.Context(), "statistics query failed", err)
		httputil.WriteError(w, err)
		return
	}

	out := statisticsResponse{
		Identities:      stats.Totals.Identities,
		CitizenAccounts: stats.Totals.CitizenAccounts,
		AdminAccounts:   stats.Totals.AdminAccounts,
		Records:         make(map[string]int, len(stats.Totals.Records)),
		Registrations:   make(map[string]int, len(stats.Registrations)),
	}
	for kind, n := range stats.Totals.Records {
		out.Records[kind.String()] = n
	}
	for status, n := range stats.Registrations {
		out.Registrations[status.String()] = n
	}
	httputil.WriteJSON(w, http.StatusOK, out)
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
