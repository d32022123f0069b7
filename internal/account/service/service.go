// Package service implements login and account lifecycle for citizens and
// admins. Citizen accounts are only ever created by registration approval;
// this package verifies credentials, tracks failed attempts and issues
// access tokens.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"civreg/internal/account/models"
	"civreg/internal/account/store"
	"civreg/internal/audit"
	jwttoken "civreg/internal/jwt_token"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/sentinel"
	txcontext "civreg/pkg/platform/tx"
	"civreg/pkg/requestcontext"
	"civreg/pkg/secrets"
)

// MaxFailedAttempts is the number of consecutive wrong passwords after which
// a citizen account is suspended.
const MaxFailedAttempts = 5

// AuditLogger is the slice of the audit service the account workflows need.
type AuditLogger interface {
	Log(ctx context.Context, operation, table, recordID, detail string) error
}

type Service struct {
	store    store.Store
	auditor  AuditLogger
	tx       txcontext.Runner
	tokens   *jwttoken.JWTService
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewService(st store.Store, auditor AuditLogger, tx txcontext.Runner, tokens *jwttoken.JWTService, tokenTTL time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		auditor:  auditor,
		tx:       tx,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	Principal requestcontext.Principal
}

// CreateCitizen inserts a citizen account bound to an identity. The caller
// (registration approval) runs this inside its own transaction and supplies
// an already-hashed password.
func (s *Service) CreateCitizen(ctx context.Context, username, passwordHash string, id domain.NationalID) (models.CitizenAccount, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.CitizenAccount{}, dErrors.New(dErrors.CodeBadRequest, "username is required")
	}

	now := requestcontext.Now(ctx)
	account := models.CitizenAccount{
		Username:     username,
		PasswordHash: passwordHash,
		NationalID:   id,
		Status:       domain.AccountActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertCitizen(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return models.CitizenAccount{}, dErrors.Wrap(err, dErrors.CodeConflict, "username or identity already has an account")
		}
		return models.CitizenAccount{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create citizen account")
	}
	return account, nil
}

// RemoveByNationalID deletes the citizen account bound to an identity. A
// missing account is not an error: not every identity has a login.
func (s *Service) RemoveByNationalID(ctx context.Context, id domain.NationalID) error {
	err := s.store.DeleteCitizenByNationalID(ctx, id)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete citizen account")
	}
	return nil
}

// UsernameTaken reports whether a citizen username is already in use.
func (s *Service) UsernameTaken(ctx context.Context, username string) (bool, error) {
	taken, err := s.store.UsernameTaken(ctx, username)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check username")
	}
	return taken, nil
}

// LoginCitizen verifies citizen credentials and issues an access token. A
// wrong password increments the failed-attempt counter; the account suspends
// itself after MaxFailedAttempts misses. A correct password on an active
// account resets the counter.
func (s *Service) LoginCitizen(ctx context.Context, username, password string) (Session, error) {
	var session Session
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		account, err := s.store.FindCitizen(txCtx, username)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
		}

		if account.Status != domain.AccountActive {
			return dErrors.Newf(dErrors.CodeForbidden, "account is %s", strings.ToLower(account.Status.String()))
		}

		now := requestcontext.Now(txCtx)
		if verifyErr := secrets.Verify(password, account.PasswordHash); verifyErr != nil {
			if !dErrors.HasCode(verifyErr, dErrors.CodeUnauthorized) {
				return dErrors.Wrap(verifyErr, dErrors.CodeInternal, "failed to verify password")
			}
			attempts := account.FailedAttempts + 1
			status := account.Status
			if attempts >= MaxFailedAttempts {
				status = domain.AccountSuspended
				s.logger.WarnContext(txCtx, "citizen account suspended after repeated failures",
					"username", account.Username)
			}
			if err := s.store.UpdateCitizenLoginState(txCtx, account.Username, attempts, status, now); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login attempt")
			}
			return verifyErr
		}

		if account.FailedAttempts > 0 {
			if err := s.store.UpdateCitizenLoginState(txCtx, account.Username, 0, domain.AccountActive, now); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset login attempts")
			}
		}

		principal := requestcontext.Principal{
			ID:   account.NationalID.String(),
			Name: account.Username,
			Role: domain.RoleCitizen,
		}
		token, err := s.tokens.GenerateAccessToken(principal.ID, principal.Name, principal.Role, s.tokenTTL)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
		}
		session = Session{Token: token, Principal: principal}

		loginCtx := requestcontext.WithActor(txCtx, principal)
		return s.auditor.Log(loginCtx, audit.OpLogin, audit.TableAccounts, account.Username, "citizen login")
	})
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

// LoginAdmin verifies admin credentials and issues an access token.
func (s *Service) LoginAdmin(ctx context.Context, username, password string) (Session, error) {
	account, err := s.store.FindAdmin(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Session{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if err := secrets.Verify(password, account.PasswordHash); err != nil {
		return Session{}, err
	}

	principal := requestcontext.Principal{
		ID:   account.Username,
		Name: account.DisplayName,
		Role: domain.RoleAdmin,
	}
	token, err := s.tokens.GenerateAccessToken(principal.ID, principal.Name, principal.Role, s.tokenTTL)
	if err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	loginCtx := requestcontext.WithActor(ctx, principal)
	if err := s.auditor.Log(loginCtx, audit.OpLogin, audit.TableAccounts, account.Username, "admin login"); err != nil {
		return Session{}, err
	}
	return Session{Token: token, Principal: principal}, nil
}

// EnsureAdmin creates an admin account if none exists under the username.
// Startup uses this to seed the initial reviewer.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, displayName string) error {
	if _, err := s.store.FindAdmin(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up admin account")
	}

	hash, err := secrets.Hash(password)
	if err != nil {
		return err
	}
	account := models.AdminAccount{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.InsertAdmin(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create admin account")
	}
	s.logger.InfoContext(ctx, "admin account seeded", "username", username)
	return nil
}
