package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civreg/internal/account/store"
	"civreg/internal/audit"
	jwttoken "civreg/internal/jwt_token"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	txcontext "civreg/pkg/platform/tx"
	"civreg/pkg/requestcontext"
	"civreg/pkg/secrets"
)

type fixture struct {
	svc        *Service
	store      *store.InMemoryStore
	auditStore *audit.InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      store.NewInMemoryStore(),
		auditStore: audit.NewInMemoryStore(),
	}
	tokens := jwttoken.NewJWTService("test-signing-key", "civreg-test")
	f.svc = NewService(f.store, audit.NewService(f.auditStore, nil), txcontext.Passthrough{}, tokens, time.Hour, nil)
	return f
}

func testCtx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
}

func seedCitizen(t *testing.T, f *fixture, username, password, nationalID string) {
	t.Helper()
	hash, err := secrets.Hash(password)
	require.NoError(t, err)
	_, err = f.svc.CreateCitizen(testCtx(), username, hash, domain.NationalID(nationalID))
	require.NoError(t, err)
}

func TestLoginCitizen(t *testing.T) {
	f := newFixture(t)
	seedCitizen(t, f, "asha", "correct horse", "123456789012")

	session, err := f.svc.LoginCitizen(testCtx(), "asha", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "123456789012", session.Principal.ID)
	assert.Equal(t, domain.RoleCitizen, session.Principal.Role)

	entries, err := f.auditStore.Recent(testCtx(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.OpLogin, entries[0].Operation)
	assert.Equal(t, "123456789012", entries[0].Actor)
}

func TestLoginCitizenWrongPassword(t *testing.T) {
	f := newFixture(t)
	seedCitizen(t, f, "asha", "correct horse", "123456789012")

	_, err := f.svc.LoginCitizen(testCtx(), "asha", "wrong")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	account, err := f.store.FindCitizen(testCtx(), "asha")
	require.NoError(t, err)
	assert.Equal(t, 1, account.FailedAttempts)
	assert.Equal(t, domain.AccountActive, account.Status)
}

func TestLoginCitizenSuspendsAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	seedCitizen(t, f, "asha", "correct horse", "123456789012")

	for i := 0; i < MaxFailedAttempts; i++ {
		_, err := f.svc.LoginCitizen(testCtx(), "asha", "wrong")
		require.Error(t, err)
	}

	account, err := f.store.FindCitizen(testCtx(), "asha")
	require.NoError(t, err)
	assert.Equal(t, MaxFailedAttempts, account.FailedAttempts)
	assert.Equal(t, domain.AccountSuspended, account.Status)

	// Even the right password is refused once suspended.
	_, err = f.svc.LoginCitizen(testCtx(), "asha", "correct horse")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestLoginCitizenResetsCounter(t *testing.T) {
	f := newFixture(t)
	seedCitizen(t, f, "asha", "correct horse", "123456789012")

	_, err := f.svc.LoginCitizen(testCtx(), "asha", "wrong")
	require.Error(t, err)

	_, err = f.svc.LoginCitizen(testCtx(), "asha", "correct horse")
	require.NoError(t, err)

	account, err := f.store.FindCitizen(testCtx(), "asha")
	require.NoError(t, err)
	assert.Equal(t, 0, account.FailedAttempts)
}

func TestLoginCitizenUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.LoginCitizen(testCtx(), "ghost", "whatever")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestLoginAdmin(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.EnsureAdmin(testCtx(), "registrar", "sekret", "District Registrar"))

	session, err := f.svc.LoginAdmin(testCtx(), "registrar", "sekret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, session.Principal.Role)
	assert.Equal(t, "District Registrar", session.Principal.Name)

	_, err = f.svc.LoginAdmin(testCtx(), "registrar", "wrong")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestEnsureAdminIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.EnsureAdmin(testCtx(), "registrar", "sekret", "District Registrar"))
	require.NoError(t, f.svc.EnsureAdmin(testCtx(), "registrar", "other", "Someone Else"))

	// First seeding wins.
	_, err := f.svc.LoginAdmin(testCtx(), "registrar", "sekret")
	require.NoError(t, err)
}

func TestCreateCitizenDuplicate(t *testing.T) {
	f := newFixture(t)
	seedCitizen(t, f, "asha", "pw", "123456789012")

	hash, err := secrets.Hash("pw")
	require.NoError(t, err)

	_, err = f.svc.CreateCitizen(testCtx(), "asha", hash, domain.NationalID("210987654321"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = f.svc.CreateCitizen(testCtx(), "other", hash, domain.NationalID("123456789012"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRemoveByNationalID(t *testing.T) {
	f := newFixture(t)
	seedCitizen(t, f, "asha", "pw", "123456789012")

	require.NoError(t, f.svc.RemoveByNationalID(testCtx(), domain.NationalID("123456789012")))
	// Removing again is a no-op.
	require.NoError(t, f.svc.RemoveByNationalID(testCtx(), domain.NationalID("123456789012")))

	taken, err := f.svc.UsernameTaken(testCtx(), "asha")
	require.NoError(t, err)
	assert.False(t, taken)
}
