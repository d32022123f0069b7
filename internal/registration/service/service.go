// Package service implements the registration approval workflow. A citizen
// submits an application; an admin approves it, which materializes the
// identity and a login account in one transaction, or rejects it with a
// reason. Both outcomes are terminal.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	accountmodels "civreg/internal/account/models"
	"civreg/internal/audit"
	identitymodels "civreg/internal/identity/models"
	identitysvc "civreg/internal/identity/service"
	"civreg/internal/platform/metrics"
	"civreg/internal/registration/models"
	"civreg/internal/registration/store"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/sentinel"
	txcontext "civreg/pkg/platform/tx"
	"civreg/pkg/requestcontext"
	"civreg/pkg/secrets"
)

const tracerName = "civreg/internal/registration"

// MinPasswordLength is the floor for submitted passwords.
const MinPasswordLength = 8

// AuditLogger is the slice of the audit service the workflow needs.
type AuditLogger interface {
	Log(ctx context.Context, operation, table, recordID, detail string) error
}

// IdentityRegistrar materializes and inspects identities. Create must join
// the caller's transaction when one rides the context.
type IdentityRegistrar interface {
	Create(ctx context.Context, in identitysvc.NewIdentity) (identitymodels.Identity, error)
	Exists(ctx context.Context, id domain.NationalID) (bool, error)
	EmailInUse(ctx context.Context, email string) (bool, error)
}

// AccountRegistrar creates and inspects citizen login accounts.
type AccountRegistrar interface {
	CreateCitizen(ctx context.Context, username, passwordHash string, id domain.NationalID) (accountmodels.CitizenAccount, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

type Service struct {
	store      store.Store
	auditor    AuditLogger
	tx         txcontext.Runner
	identities IdentityRegistrar
	accounts   AccountRegistrar
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

func NewService(
	st store.Store,
	auditor AuditLogger,
	tx txcontext.Runner,
	identities IdentityRegistrar,
	accounts AccountRegistrar,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      st,
		auditor:    auditor,
		tx:         tx,
		identities: identities,
		accounts:   accounts,
		metrics:    m,
		tracer:     otel.Tracer(tracerName),
		logger:     logger,
	}
}

// SubmitInput carries a validated application. The password arrives in
// plaintext and is hashed before anything persists.
type SubmitInput struct {
	Username   string
	Password   string
	NationalID domain.NationalID
	Name       string
	Gender     domain.Gender
	BirthDate  time.Time
	Mobile     domain.Phone
	Email      string
}

// Submit stages a new registration request after checking the proposed
// username, national id and email against existing identities, accounts and
// other pending requests.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (models.RegistrationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Submit")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" {
		return models.RegistrationRequest{}, dErrors.New(dErrors.CodeBadRequest, "username is required")
	}
	if in.Name == "" {
		return models.RegistrationRequest{}, dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if len(in.Password) < MinPasswordLength {
		return models.RegistrationRequest{}, dErrors.Newf(dErrors.CodeBadRequest, "password must be at least %d characters", MinPasswordLength)
	}

	hash, err := secrets.Hash(in.Password)
	if err != nil {
		return models.RegistrationRequest{}, err
	}

	var created models.RegistrationRequest
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkAvailability(txCtx, in); err != nil {
			return err
		}

		created, err = s.store.Insert(txCtx, models.RegistrationRequest{
			Username:     in.Username,
			PasswordHash: hash,
			NationalID:   in.NationalID,
			Name:         in.Name,
			Gender:       in.Gender,
			BirthDate:    in.BirthDate,
			Mobile:       in.Mobile,
			Email:        in.Email,
			SubmittedAt:  requestcontext.Now(txCtx),
			Status:       domain.StatusPending,
		})
		if err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "a pending request already claims this username, national id or email")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store request")
		}
		return s.auditor.Log(txCtx, audit.OpSubmit, audit.TableRegistrations,
			requestRecordID(created.RequestID), "registration submitted for "+created.NationalID.String())
	})
	if err != nil {
		span.RecordError(err)
		return models.RegistrationRequest{}, err
	}

	span.SetAttributes(attribute.Int64("registration.request_id", created.RequestID))
	if s.metrics != nil {
		s.metrics.RegistrationsSubmitted.Inc()
	}
	s.logger.InfoContext(ctx, "registration submitted",
		"request_id", created.RequestID, "national_id", created.NationalID.String())
	return created, nil
}

func (s *Service) checkAvailability(ctx context.Context, in SubmitInput) error {
	exists, err := s.identities.Exists(ctx, in.NationalID)
	if err != nil {
		return err
	}
	if exists {
		return dErrors.New(dErrors.CodeConflict, "national id already registered")
	}

	taken, err := s.accounts.UsernameTaken(ctx, in.Username)
	if err != nil {
		return err
	}
	if taken {
		return dErrors.New(dErrors.CodeConflict, "username already taken")
	}

	if in.Email != "" {
		inUse, err := s.identities.EmailInUse(ctx, in.Email)
		if err != nil {
			return err
		}
		if inUse {
			return dErrors.New(dErrors.CodeConflict, "email already registered")
		}
	}
	return nil
}

// Approve transitions a pending request to Approved and materializes the
// identity, its biometric row and the citizen account, all in one
// transaction with the audit entry. A request whose national id was claimed
// after submission is rejected automatically and the conflict is returned.
func (s *Service) Approve(ctx context.Context, requestID int64) (models.RegistrationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Approve",
		trace.WithAttributes(attribute.Int64("registration.request_id", requestID)))
	defer span.End()

	reviewer := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	var (
		approved      models.RegistrationRequest
		materializing bool
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.store.Find(txCtx, requestID)
		if err != nil {
			return mapReviewErr(err)
		}
		if req.Status.Terminal() {
			return dErrors.New(dErrors.CodeConflict, "registration request already reviewed")
		}
		materializing = true

		if _, err := s.identities.Create(txCtx, identitysvc.NewIdentity{
			NationalID: req.NationalID,
			Name:       req.Name,
			Gender:     req.Gender,
			BirthDate:  req.BirthDate,
			Mobile:     req.Mobile,
			Email:      req.Email,
		}); err != nil {
			return err
		}
		if _, err := s.accounts.CreateCitizen(txCtx, req.Username, req.PasswordHash, req.NationalID); err != nil {
			return err
		}

		// The conditional transition is the authoritative re-entrancy guard:
		// of two concurrent approvals, only one finds the row still Pending.
		if err := s.store.MarkReviewed(txCtx, requestID, domain.StatusApproved, reviewer.ID, now, ""); err != nil {
			return mapReviewErr(err)
		}

		req.Status = domain.StatusApproved
		req.ReviewedBy = reviewer.ID
		req.ReviewedAt = &now
		approved = req
		detail := fmt.Sprintf("registration approved, identity %s created", req.NationalID)
		return s.auditor.Log(txCtx, audit.OpApprove, audit.TableRegistrations,
			requestRecordID(requestID), detail)
	})
	if err != nil {
		span.RecordError(err)
		if materializing && dErrors.HasCode(err, dErrors.CodeConflict) {
			// The national id, username or email was claimed between submit
			// and review. The approval rolled back; close the request out.
			s.autoReject(ctx, requestID, reviewer.ID, err)
		}
		return models.RegistrationRequest{}, err
	}

	if s.metrics != nil {
		s.metrics.RegistrationsApproved.Inc()
	}
	s.logger.InfoContext(ctx, "registration approved",
		"request_id", requestID, "national_id", approved.NationalID.String(), "reviewed_by", reviewer.ID)
	return approved, nil
}

// autoReject closes out a request whose approval lost a race with another
// claim on the same identity data. Runs in its own transaction because the
// approval's transaction already rolled back.
func (s *Service) autoReject(ctx context.Context, requestID int64, reviewer string, cause error) {
	reason := "approval failed: " + dErrors.MessageOf(cause)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.MarkReviewed(txCtx, requestID, domain.StatusRejected, reviewer, requestcontext.Now(txCtx), reason); err != nil {
			return err
		}
		return s.auditor.Log(txCtx, audit.OpReject, audit.TableRegistrations,
			requestRecordID(requestID), reason)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to auto-reject conflicting request",
			"request_id", requestID, "error", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.RegistrationsRejected.Inc()
	}
	s.logger.WarnContext(ctx, "registration auto-rejected", "request_id", requestID, "reason", reason)
}

// Reject transitions a pending request to Rejected with the reviewer's
// reason. No identity or account is created.
func (s *Service) Reject(ctx context.Context, requestID int64, reason string) (models.RegistrationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Reject",
		trace.WithAttributes(attribute.Int64("registration.request_id", requestID)))
	defer span.End()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.RegistrationRequest{}, dErrors.New(dErrors.CodeBadRequest, "rejection reason is required")
	}

	reviewer := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.MarkReviewed(txCtx, requestID, domain.StatusRejected, reviewer.ID, now, reason); err != nil {
			return mapReviewErr(err)
		}
		return s.auditor.Log(txCtx, audit.OpReject, audit.TableRegistrations,
			requestRecordID(requestID), "registration rejected: "+reason)
	})
	if err != nil {
		span.RecordError(err)
		return models.RegistrationRequest{}, err
	}

	if s.metrics != nil {
		s.metrics.RegistrationsRejected.Inc()
	}
	s.logger.InfoContext(ctx, "registration rejected",
		"request_id", requestID, "reviewed_by", reviewer.ID)
	return s.Get(ctx, requestID)
}

// Get returns one request by id.
func (s *Service) Get(ctx context.Context, requestID int64) (models.RegistrationRequest, error) {
	req, err := s.store.Find(ctx, requestID)
	if err != nil {
		return models.RegistrationRequest{}, mapReviewErr(err)
	}
	return req, nil
}

// ListPending returns the review queue, oldest submission first.
func (s *Service) ListPending(ctx context.Context) ([]models.RegistrationRequest, error) {
	out, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending requests")
	}
	return out, nil
}

// CountByStatus returns request counts keyed by workflow status.
func (s *Service) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count requests")
	}
	return counts, nil
}

func requestRecordID(requestID int64) string {
	return strconv.FormatInt(requestID, 10)
}

func mapReviewErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "registration request not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, "registration request already reviewed")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
}
