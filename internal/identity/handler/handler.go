// Package handler exposes the identity registry over HTTP. All routes here
// are admin-scoped; the transport router applies authentication before
// mounting them.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"civreg/internal/identity/models"
	"civreg/internal/identity/service"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/httputil"
	"civreg/pkg/requestcontext"
)

// Service is the identity workflow surface the handler depends on.
type Service interface {
	Create(ctx context.Context, in service.NewIdentity) (models.Identity, error)
	Get(ctx context.Context, id domain.NationalID) (models.Identity, error)
	GetProfile(ctx context.Context, id domain.NationalID) (service.Profile, error)
	List(ctx context.Context) ([]models.Identity, error)
	UpdateContact(ctx context.Context, id domain.NationalID, mobile domain.Phone, email string) (models.Identity, error)
	Delete(ctx context.Context, id domain.NationalID) error

	AddTaxID(ctx context.Context, rec models.TaxID) (models.TaxID, error)
	RemoveTaxID(ctx context.Context, code domain.TaxCode) error
	ListTaxIDs(ctx context.Context, id domain.NationalID) ([]models.TaxID, error)

	AddVoterRecord(ctx context.Context, rec models.VoterRecord) (models.VoterRecord, error)
	RemoveVoterRecord(ctx context.Context, code domain.ElectoralCode) error
	ListVoterRecords(ctx context.Context, id domain.NationalID) ([]models.VoterRecord, error)

	AddSimRecord(ctx context.Context, rec models.SimRecord) (models.SimRecord, error)
	RemoveSimRecord(ctx context.Context, sim domain.SimNumber) error
	ListSimRecords(ctx context.Context, id domain.NationalID) ([]models.SimRecord, error)

	AddBankAccount(ctx context.Context, rec models.BankAccount) (models.BankAccount, error)
	RemoveBankAccount(ctx context.Context, accountNumber, bankName string) error
	ListBankAccounts(ctx context.Context, id domain.NationalID) ([]models.BankAccount, error)

	AttachPhoto(ctx context.Context, id domain.NationalID, photo []byte, format string) error
	GetPhoto(ctx context.Context, id domain.NationalID) (models.Biometric, error)
	ClearPhoto(ctx context.Context, id domain.NationalID) error
}

// Handler handles identity and linked-record endpoints.
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

// Register mounts the identity routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identities", h.handleCreate)
	r.Get("/identities", h.handleList)
	r.Get("/identities/{nationalID}", h.handleGetProfile)
	r.Put("/identities/{nationalID}/contact", h.handleUpdateContact)
	r.Delete("/identities/{nationalID}", h.handleDelete)

	r.Post("/identities/{nationalID}/photo", h.handleAttachPhoto)
	r.Get("/identities/{nationalID}/photo", h.handleGetPhoto)
	r.Delete("/identities/{nationalID}/photo", h.handleClearPhoto)

	r.Post("/identities/{nationalID}/tax-ids", h.handleAddTaxID)
	r.Get("/identities/{nationalID}/tax-ids", h.handleListTaxIDs)
	r.Delete("/tax-ids/{code}", h.handleRemoveTaxID)

	r.Post("/identities/{nationalID}/voter-records", h.handleAddVoterRecord)
	r.Get("/identities/{nationalID}/voter-records", h.handleListVoterRecords)
	r.Delete("/voter-records/{code}", h.handleRemoveVoterRecord)

	r.Post("/identities/{nationalID}/sim-records", h.handleAddSimRecord)
	r.Get("/identities/{nationalID}/sim-records", h.handleListSimRecords)
	r.Delete("/sim-records/{simNumber}", h.handleRemoveSimRecord)

	r.Post("/identities/{nationalID}/bank-accounts", h.handleAddBankAccount)
	r.Get("/identities/{nationalID}/bank-accounts", h.handleListBankAccounts)
	r.Delete("/bank-accounts/{accountNumber}/{bankName}", h.handleRemoveBankAccount)
}

func (h *Handler) pathNationalID(w http.ResponseWriter, r *http.Request) (domain.NationalID, bool) {
	id, err := domain.ParseNationalID(chi.URLParam(r, "nationalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return id, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createIdentityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	in, err := req.toInput(requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.Create(ctx, in)
	if err != nil {
		h.logError(ctx, "failed to create identity", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toIdentityResponse(created))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logError(r.Context(), "failed to list identities", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]identityResponse, 0, len(list))
	for _, identity := range list {
		out = append(out, toIdentityResponse(identity))
	}
	httputil.WriteJSON(w, http.StatusOK, listIdentitiesResponse{Identities: out})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}
	profile, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		h.logError(r.Context(), "failed to load profile", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}

	var req updateContactRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	mobile, err := domain.ParsePhone(req.Mobile)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.UpdateContact(r.Context(), id, mobile, req.Email)
	if err != nil {
		h.logError(r.Context(), "failed to update contact", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(updated))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logError(r.Context(), "failed to delete identity", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// logError keeps handler logging uniform: client errors log at warn, the rest
// at error.
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

func parseDate(s, field string) (time.Time, error) {
	if s == "" {
		return time.Time{}, dErrors.Newf(dErrors.CodeBadRequest, "%s is required", field)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeBadRequest, "%s must be in YYYY-MM-DD format", field)
	}
	return t, nil
}
