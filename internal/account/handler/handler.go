// Package handler exposes the login endpoints. These are the only
// unauthenticated mutating routes in the service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"civreg/internal/account/service"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/httputil"
	"civreg/pkg/requestcontext"
)

// Service is the login surface the handler depends on.
type Service interface {
	LoginCitizen(ctx context.Context, username, password string) (service.Session, error)
	LoginAdmin(ctx context.Context, username, password string) (service.Session, error)
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

// Register mounts the login routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleCitizenLogin)
	r.Post("/auth/admin/login", h.handleAdminLogin)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Name        string `json:"name"`
}

func (h *Handler) handleCitizenLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.service.LoginCitizen)
}

func (h *Handler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.service.LoginAdmin)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, username, password string) (service.Session, error)) {
	ctx := r.Context()

	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "username and password are required"))
		return
	}

	session, err := fn(ctx, req.Username, req.Password)
	if err != nil {
		switch dErrors.CodeOf(err) {
		case dErrors.CodeUnauthorized, dErrors.CodeForbidden:
			h.logger.WarnContext(ctx, "login refused",
				"request_id", requestcontext.RequestID(ctx),
				"username", req.Username,
			)
		default:
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: session.Token,
		TokenType:   "Bearer",
		Role:        session.Principal.Role.String(),
		Name:        session.Principal.Name,
	})
}
