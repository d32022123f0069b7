package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civreg/internal/audit"
	"civreg/internal/cases/store"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	txcontext "civreg/pkg/platform/tx"
	"civreg/pkg/requestcontext"
)

type fakeIdentityChecker struct {
	known map[domain.NationalID]bool
}

func (f *fakeIdentityChecker) Exists(_ context.Context, id domain.NationalID) (bool, error) {
	return f.known[id], nil
}

type fixture struct {
	svc        *Service
	store      *store.InMemoryStore
	auditStore *audit.InMemoryStore
	identities *fakeIdentityChecker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      store.NewInMemoryStore(),
		auditStore: audit.NewInMemoryStore(),
		identities: &fakeIdentityChecker{known: map[domain.NationalID]bool{}},
	}
	f.svc = NewService(f.store, audit.NewService(f.auditStore, nil), txcontext.Passthrough{}, f.identities, nil)
	return f
}

func testCtx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
}

func TestCreateCase(t *testing.T) {
	f := newFixture(t)
	f.identities.known["123456789012"] = true

	detail, err := f.svc.Create(testCtx(), "theft", []domain.NationalID{"123456789012"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.Case.CaseNumber)
	assert.Equal(t, "theft", detail.Case.Offence)

	got, err := f.svc.Get(testCtx(), detail.Case.CaseNumber)
	require.NoError(t, err)
	assert.Equal(t, []domain.NationalID{"123456789012"}, got.LinkedIdentities)

	entries, err := f.auditStore.Recent(testCtx(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.OpCreate, entries[0].Operation)
	assert.Equal(t, audit.TableCriminalCases, entries[0].Table)
}

func TestCreateCaseUnknownIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(testCtx(), "theft", []domain.NationalID{"000000000000"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCreateCaseBlankOffence(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(testCtx(), "  ", nil)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestLinkAndUnlink(t *testing.T) {
	f := newFixture(t)
	f.identities.known["123456789012"] = true
	f.identities.known["210987654321"] = true

	detail, err := f.svc.Create(testCtx(), "fraud", nil)
	require.NoError(t, err)
	n := detail.Case.CaseNumber

	require.NoError(t, f.svc.Link(testCtx(), n, "123456789012"))
	require.NoError(t, f.svc.Link(testCtx(), n, "210987654321"))

	err = f.svc.Link(testCtx(), n, "123456789012")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	got, err := f.svc.Get(testCtx(), n)
	require.NoError(t, err)
	assert.Len(t, got.LinkedIdentities, 2)

	require.NoError(t, f.svc.Unlink(testCtx(), n, "123456789012"))
	err = f.svc.Unlink(testCtx(), n, "123456789012")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestLinkMissingCase(t *testing.T) {
	f := newFixture(t)
	f.identities.known["123456789012"] = true

	err := f.svc.Link(testCtx(), 999, "123456789012")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUnlinkIdentityCascade(t *testing.T) {
	f := newFixture(t)
	f.identities.known["123456789012"] = true

	first, err := f.svc.Create(testCtx(), "theft", []domain.NationalID{"123456789012"})
	require.NoError(t, err)
	second, err := f.svc.Create(testCtx(), "fraud", []domain.NationalID{"123456789012"})
	require.NoError(t, err)

	removed, err := f.svc.UnlinkIdentity(testCtx(), "123456789012")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// Cases survive, only the links go.
	got, err := f.svc.Get(testCtx(), first.Case.CaseNumber)
	require.NoError(t, err)
	assert.Empty(t, got.LinkedIdentities)
	_, err = f.svc.Get(testCtx(), second.Case.CaseNumber)
	require.NoError(t, err)
}

func TestCasesForIdentity(t *testing.T) {
	f := newFixture(t)
	f.identities.known["123456789012"] = true

	_, err := f.svc.Create(testCtx(), "theft", []domain.NationalID{"123456789012"})
	require.NoError(t, err)
	_, err = f.svc.Create(testCtx(), "fraud", nil)
	require.NoError(t, err)

	cases, err := f.svc.CasesForIdentity(testCtx(), "123456789012")
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "theft", cases[0].Offence)

	_, err = f.svc.CasesForIdentity(testCtx(), "000000000000")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDeleteCase(t *testing.T) {
	f := newFixture(t)

	detail, err := f.svc.Create(testCtx(), "theft", nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(testCtx(), detail.Case.CaseNumber))

	_, err = f.svc.Get(testCtx(), detail.Case.CaseNumber)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	err = f.svc.Delete(testCtx(), detail.Case.CaseNumber)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
