package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountsvc "civreg/internal/account/service"
	accountstore "civreg/internal/account/store"
	"civreg/internal/audit"
	identitysvc "civreg/internal/identity/service"
	identitystore "civreg/internal/identity/store"
	jwttoken "civreg/internal/jwt_token"
	"civreg/internal/registration/store"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	txcontext "civreg/pkg/platform/tx"
	"civreg/pkg/requestcontext"
)

type noopUnlinker struct{}

func (noopUnlinker) UnlinkIdentity(context.Context, domain.NationalID) (int, error) { return 0, nil }

type fixture struct {
	svc        *Service
	store      *store.InMemoryStore
	identities *identitysvc.Service
	accounts   *accountsvc.Service
	idStore    *identitystore.InMemoryStore
	acctStore  *accountstore.InMemoryStore
	auditStore *audit.InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      store.NewInMemoryStore(),
		idStore:    identitystore.NewInMemoryStore(),
		acctStore:  accountstore.NewInMemoryStore(),
		auditStore: audit.NewInMemoryStore(),
	}
	auditSvc := audit.NewService(f.auditStore, nil)
	runner := txcontext.Passthrough{}
	tokens := jwttoken.NewJWTService("test-signing-key", "civreg-test")
	f.accounts = accountsvc.NewService(f.acctStore, auditSvc, runner, tokens, time.Hour, nil)
	f.identities = identitysvc.NewService(f.idStore, auditSvc, runner, noopUnlinker{}, f.accounts, nil, nil)
	f.svc = NewService(f.store, auditSvc, runner, f.identities, f.accounts, nil, nil)
	return f
}

func testCtx() context.Context {
	ctx := requestcontext.WithActor(context.Background(),
		requestcontext.Principal{ID: "registrar", Name: "District Registrar", Role: domain.RoleAdmin})
	return requestcontext.WithTime(ctx, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
}

func submitInput(username, nationalID string) SubmitInput {
	return SubmitInput{
		Username:   username,
		Password:   "correct horse battery",
		NationalID: domain.NationalID(nationalID),
		Name:       "Asha Verma",
		Gender:     domain.GenderFemale,
		BirthDate:  time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		Mobile:     domain.Phone("9876543210"),
	}
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)

	req, err := f.svc.Submit(testCtx(), submitInput("asha", "123456789012"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), req.RequestID)
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.NotEqual(t, "correct horse battery", req.PasswordHash)

	entries, err := f.auditStore.Recent(testCtx(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.OpSubmit, entries[0].Operation)
}

func TestSubmitShortPassword(t *testing.T) {
	f := newFixture(t)
	in := submitInput("asha", "123456789012")
	in.Password = "short"

	_, err := f.svc.Submit(testCtx(), in)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestSubmitDuplicatePending(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(testCtx(), submitInput("asha", "123456789012"))
	require.NoError(t, err)

	// Same national id in another pending request.
	_, err = f.svc.Submit(testCtx(), submitInput("other", "123456789012"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	// Same username in another pending request.
	_, err = f.svc.Submit(testCtx(), submitInput("asha", "210987654321"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestSubmitExistingIdentity(t *testing.T) {
	f := newFixture(t)
	_, err := f.identities.Create(testCtx(), identitysvc.NewIdentity{
		NationalID: "123456789012",
		Name:       "Asha Verma",
		Gender:     domain.GenderFemale,
		BirthDate:  time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		Mobile:     "9876543210",
	})
	require.NoError(t, err)

	_, err = f.svc.Submit(testCtx(), submitInput("asha", "123456789012"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	submitted, err := f.svc.Submit(testCtx(), submitInput("asha", "123456789012"))
	require.NoError(t, err)

	approved, err := f.svc.Approve(testCtx(), submitted.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.Equal(t, "registrar", approved.ReviewedBy)
	require.NotNil(t, approved.ReviewedAt)

	// Identity, biometric and account all materialized.
	identity, err := f.identities.Get(testCtx(), "123456789012")
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", identity.Name)
	_, err = f.idStore.FindBiometric(testCtx(), "123456789012")
	require.NoError(t, err)
	account, err := f.acctStore.FindCitizen(testCtx(), "asha")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountActive, account.Status)
	assert.Equal(t, submitted.PasswordHash, account.PasswordHash)

	// No pending work left.
	pending, err := f.svc.ListPending(testCtx())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApproveTwice(t *testing.T) {
	f := newFixture(t)
	submitted, err := f.svc.Submit(testCtx(), submitInput("asha", "123456789012"))
	require.NoError(t, err)

	_, err = f.svc.Approve(testCtx(), submitted.RequestID)
	require.NoError(t, err)

	_, err = f.svc.Approve(testCtx(), submitted.RequestID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	// The request stays Approved; the double call changed nothing.
	req, err := f.svc.Get(testCtx(), submitted.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, req.Status)
}

func TestApproveMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Approve(testCtx(), 999)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestApproveAutoRejectsClaimedNationalID(t *testing.T) {
	f := newFixture(t)
	submitted, err := f.svc.Submit(testCtx(), submitInput("asha", "123456789012"))
	require.NoError(t, err)

	// The national id gets claimed directly after submission.
	_, err = f.identities.Create(testCtx(), identitysvc.NewIdentity{
		NationalID: "123456789012",
		Name:       "Someone Else",
		Gender:     domain.GenderMale,
		BirthDate:  time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC),
		Mobile:     "9123456789",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(testCtx(), submitted.RequestID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	req, err := f.svc.Get(testCtx(), submitted.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, req.Status)
	assert.Contains(t, req.RejectionReason, "approval failed")

	// No account was created for the rejected applicant.
	_, err = f.acctStore.FindCitizen(testCtx(), "asha")
	require.Error(t, err)
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	submitted, err := f.svc.Submit(testCtx(), submitInput("asha", "123456789012"))
	require.NoError(t, err)

	rejected, err := f.svc.Reject(testCtx(), submitted.RequestID, "documents unreadable")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.Equal(t, "documents unreadable", rejected.RejectionReason)

	// Nothing materialized.
	_, err = f.identities.Get(testCtx(), "123456789012")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	// A rejected request frees its identifiers for resubmission.
	_, err = f.svc.Submit(testCtx(), submitInput("asha", "123456789012"))
	require.NoError(t, err)
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	submitted, err := f.svc.Submit(testCtx(), submitInput("asha", "123456789012"))
	require.NoError(t, err)

	_, err = f.svc.Reject(testCtx(), submitted.RequestID, "  ")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestRejectAfterApprove(t *testing.T) {
	f := newFixture(t)
	submitted, err := f.svc.Submit(testCtx(), submitInput("asha", "123456789012"))
	require.NoError(t, err)
	_, err = f.svc.Approve(testCtx(), submitted.RequestID)
	require.NoError(t, err)

	_, err = f.svc.Reject(testCtx(), submitted.RequestID, "too late")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestListPendingOldestFirst(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, username := range []string{"first", "second", "third"} {
		ctx := requestcontext.WithTime(testCtx(), base.Add(time.Duration(i)*time.Minute))
		in := submitInput(username, "")
		in.NationalID = domain.NationalID([]string{"111111111111", "222222222222", "333333333333"}[i])
		_, err := f.svc.Submit(ctx, in)
		require.NoError(t, err)
	}

	pending, err := f.svc.ListPending(testCtx())
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "first", pending[0].Username)
	assert.Equal(t, "third", pending[2].Username)
}

func TestCountByStatus(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.Submit(testCtx(), submitInput("first", "111111111111"))
	require.NoError(t, err)
	_, err = f.svc.Submit(testCtx(), submitInput("second", "222222222222"))
	require.NoError(t, err)

	_, err = f.svc.Approve(testCtx(), first.RequestID)
	require.NoError(t, err)

	counts, err := f.svc.CountByStatus(testCtx())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.StatusPending])
	assert.Equal(t, 1, counts[domain.StatusApproved])
	assert.Equal(t, 0, counts[domain.StatusRejected])
}
