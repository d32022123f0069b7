package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"

	"civreg/internal/identity/models"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/httputil"
)

func (h *Handler) handleAddTaxID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}

	var req addTaxIDRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	code, err := domain.ParseTaxCode(req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	issued, err := parseDate(req.IssueDate, "issue_date")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.AddTaxID(r.Context(), models.TaxID{
		Code:       code,
		IssueDate:  issued,
		Status:     req.Status,
		NationalID: id,
	})
	if err != nil {
		h.logError(r.Context(), "failed to add tax id", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTaxIDResponse(created))
}

func (h *Handler) handleListTaxIDs(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}
	recs, err := h.service.ListTaxIDs(r.Context(), id)
	if err != nil {
		h.logError(r.Context(), "failed to list tax ids", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]taxIDResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toTaxIDResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]taxIDResponse{"tax_ids": out})
}

func (h *Handler) handleRemoveTaxID(w http.ResponseWriter, r *http.Request) {
	code, err := domain.ParseTaxCode(chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RemoveTaxID(r.Context(), code); err != nil {
		h.logError(r.Context(), "failed to remove tax id", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddVoterRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}

	var req addVoterRecordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	code, err := domain.ParseElectoralCode(req.ElectoralCode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	regType, err := domain.ParseRegistrationType(req.RegistrationType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec := models.VoterRecord{
		ElectoralCode:    code,
		NationalID:       id,
		Address:          req.Address,
		RegistrationType: regType,
		Status:           req.Status,
	}
	if req.IssueDate != "" {
		if rec.IssueDate, err = parseDate(req.IssueDate, "issue_date"); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	created, err := h.service.AddVoterRecord(r.Context(), rec)
	if err != nil {
		h.logError(r.Context(), "failed to add voter record", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVoterRecordResponse(created))
}

func (h *Handler) handleListVoterRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}
	recs, err := h.service.ListVoterRecords(r.Context(), id)
	if err != nil {
		h.logError(r.Context(), "failed to list voter records", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]voterRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toVoterRecordResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]voterRecordResponse{"voter_records": out})
}

func (h *Handler) handleRemoveVoterRecord(w http.ResponseWriter, r *http.Request) {
	code, err := domain.ParseElectoralCode(chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RemoveVoterRecord(r.Context(), code); err != nil {
		h.logError(r.Context(), "failed to remove voter record", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddSimRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}

	var req addSimRecordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sim, err := domain.ParseSimNumber(req.SimNumber)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.AddSimRecord(r.Context(), models.SimRecord{
		SimNumber:  sim,
		Provider:   req.Provider,
		Status:     req.Status,
		NationalID: id,
	})
	if err != nil {
		h.logError(r.Context(), "failed to add sim record", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSimRecordResponse(created))
}

func (h *Handler) handleListSimRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}
	recs, err := h.service.ListSimRecords(r.Context(), id)
	if err != nil {
		h.logError(r.Context(), "failed to list sim records", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]simRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toSimRecordResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]simRecordResponse{"sim_records": out})
}

func (h *Handler) handleRemoveSimRecord(w http.ResponseWriter, r *http.Request) {
	sim, err := domain.ParseSimNumber(chi.URLParam(r, "simNumber"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RemoveSimRecord(r.Context(), sim); err != nil {
		h.logError(r.Context(), "failed to remove sim record", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddBankAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}

	var req addBankAccountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	branch, err := domain.ParseBranchCode(req.BranchCode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.AddBankAccount(r.Context(), models.BankAccount{
		AccountNumber: req.AccountNumber,
		BankName:      req.BankName,
		AccountType:   req.AccountType,
		BranchCode:    branch,
		NationalID:    id,
	})
	if err != nil {
		h.logError(r.Context(), "failed to add bank account", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toBankAccountResponse(created))
}

func (h *Handler) handleListBankAccounts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}
	recs, err := h.service.ListBankAccounts(r.Context(), id)
	if err != nil {
		h.logError(r.Context(), "failed to list bank accounts", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]bankAccountResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toBankAccountResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]bankAccountResponse{"bank_accounts": out})
}

func (h *Handler) handleRemoveBankAccount(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")
	bankName := chi.URLParam(r, "bankName")
	if err := h.service.RemoveBankAccount(r.Context(), accountNumber, bankName); err != nil {
		h.logError(r.Context(), "failed to remove bank account", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAttachPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}

	var req attachPhotoRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	photo, err := base64.StdEncoding.DecodeString(req.Photo)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "photo must be base64 encoded"))
		return
	}

	if err := h.service.AttachPhoto(r.Context(), id, photo, req.Format); err != nil {
		h.logError(r.Context(), "failed to attach photo", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}
	bio, err := h.service.GetPhoto(r.Context(), id)
	if err != nil {
		h.logError(r.Context(), "failed to load photo", err)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/"+bio.PhotoFormat)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(bio.Photo)
}

func (h *Handler) handleClearPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNationalID(w, r)
	if !ok {
		return
	}
	if err := h.service.ClearPhoto(r.Context(), id); err != nil {
		h.logError(r.Context(), "failed to clear photo", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
