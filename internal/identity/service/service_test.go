package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civreg/internal/audit"
	"civreg/internal/identity/models"
	"civreg/internal/identity/store"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	txcontext "civreg/pkg/platform/tx"
	"civreg/pkg/requestcontext"
)

type fakeCaseUnlinker struct {
	unlinked []domain.NationalID
	links    int
}

func (f *fakeCaseUnlinker) UnlinkIdentity(_ context.Context, id domain.NationalID) (int, error) {
	f.unlinked = append(f.unlinked, id)
	return f.links, nil
}

type fakeAccountRemover struct {
	removed []domain.NationalID
}

func (f *fakeAccountRemover) RemoveByNationalID(_ context.Context, id domain.NationalID) error {
	f.removed = append(f.removed, id)
	return nil
}

type fixture struct {
	svc      *Service
	store    *store.InMemoryStore
	auditLog *audit.InMemoryStore
	cases    *fakeCaseUnlinker
	accounts *fakeAccountRemover
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewInMemoryStore()
	auditStore := audit.NewInMemoryStore()
	f := &fixture{
		store:    st,
		auditLog: auditStore,
		cases:    &fakeCaseUnlinker{},
		accounts: &fakeAccountRemover{},
	}
	f.svc = NewService(st, audit.NewService(auditStore, nil), txcontext.Passthrough{}, f.cases, f.accounts, nil, nil)
	return f
}

func testCtx() context.Context {
	ctx := context.Background()
	ctx = requestcontext.WithActor(ctx, requestcontext.Principal{ID: "admin-1", Name: "Admin", Role: domain.RoleAdmin})
	return requestcontext.WithTime(ctx, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
}

func newIdentityInput(id string) NewIdentity {
	return NewIdentity{
		NationalID: domain.NationalID(id),
		Name:       "Asha Verma",
		Gender:     domain.GenderFemale,
		BirthDate:  time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		Mobile:     domain.Phone("9876543210"),
	}
}

func TestCreateIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	created, err := f.svc.Create(ctx, newIdentityInput("123456789012"))
	require.NoError(t, err)
	assert.Equal(t, domain.NationalID("123456789012"), created.NationalID)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), created.CreatedAt)

	// A zeroed biometric row rides along with the identity.
	bio, err := f.store.FindBiometric(ctx, created.NationalID)
	require.NoError(t, err)
	assert.False(t, bio.HasPhoto)
	assert.Equal(t, 1, bio.Version)

	entries, err := f.auditLog.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.OpCreate, entries[0].Operation)
	assert.Equal(t, audit.TableIdentities, entries[0].Table)
	assert.Equal(t, "admin-1", entries[0].Actor)
}

func TestCreateIdentityDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	_, err := f.svc.Create(ctx, newIdentityInput("123456789012"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, newIdentityInput("123456789012"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestCreateIdentityBlankName(t *testing.T) {
	f := newFixture(t)
	in := newIdentityInput("123456789012")
	in.Name = "   "

	_, err := f.svc.Create(testCtx(), in)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestDeleteIdentityCascade(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()
	f.cases.links = 2

	created, err := f.svc.Create(ctx, newIdentityInput("123456789012"))
	require.NoError(t, err)
	_, err = f.svc.AddTaxID(ctx, models.TaxID{
		Code:       domain.TaxCode("ABCDE1234F"),
		IssueDate:  time.Date(2015, 4, 1, 0, 0, 0, 0, time.UTC),
		NationalID: created.NationalID,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.NationalID))

	assert.Equal(t, []domain.NationalID{created.NationalID}, f.cases.unlinked)
	assert.Equal(t, []domain.NationalID{created.NationalID}, f.accounts.removed)

	_, err = f.svc.Get(ctx, created.NationalID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	taxIDs, err := f.store.ListTaxIDs(ctx, created.NationalID)
	require.NoError(t, err)
	assert.Empty(t, taxIDs)
}

func TestDeleteIdentityMissing(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Delete(testCtx(), domain.NationalID("000000000000"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Empty(t, f.cases.unlinked)
}

func TestUpdateContactEmailConflict(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	first, err := f.svc.Create(ctx, newIdentityInput("123456789012"))
	require.NoError(t, err)
	_, err = f.svc.UpdateContact(ctx, first.NationalID, first.Mobile, "asha@example.org")
	require.NoError(t, err)

	in := newIdentityInput("210987654321")
	in.Name = "Ravi Kumar"
	second, err := f.svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = f.svc.UpdateContact(ctx, second.NationalID, second.Mobile, "asha@example.org")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestAddTaxIDMissingIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddTaxID(testCtx(), models.TaxID{
		Code:       domain.TaxCode("ABCDE1234F"),
		IssueDate:  time.Date(2015, 4, 1, 0, 0, 0, 0, time.UTC),
		NationalID: domain.NationalID("000000000000"),
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestAddTaxIDFutureIssueDate(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()
	created, err := f.svc.Create(ctx, newIdentityInput("123456789012"))
	require.NoError(t, err)

	_, err = f.svc.AddTaxID(ctx, models.TaxID{
		Code:       domain.TaxCode("ABCDE1234F"),
		IssueDate:  time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		NationalID: created.NationalID,
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestAddVoterRecordDenormalizesHolder(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()
	created, err := f.svc.Create(ctx, newIdentityInput("123456789012"))
	require.NoError(t, err)

	first, err := f.svc.AddVoterRecord(ctx, models.VoterRecord{
		ElectoralCode:    domain.ElectoralCode("VOTER001"),
		NationalID:       created.NationalID,
		Address:          "12 Lake Road",
		RegistrationType: domain.RegistrationCity,
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", first.HolderName)
	assert.True(t, first.Primary)
	assert.Equal(t, StatusActive, first.Status)

	second, err := f.svc.AddVoterRecord(ctx, models.VoterRecord{
		ElectoralCode:    domain.ElectoralCode("VOTER002"),
		NationalID:       created.NationalID,
		Address:          "12 Lake Road",
		RegistrationType: domain.RegistrationCity,
	})
	require.NoError(t, err)
	assert.False(t, second.Primary)
}

func TestPhotoLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()
	created, err := f.svc.Create(ctx, newIdentityInput("123456789012"))
	require.NoError(t, err)

	_, err = f.svc.GetPhoto(ctx, created.NationalID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	err = f.svc.AttachPhoto(ctx, created.NationalID, []byte{0xFF, 0xD8, 0xFF}, "gif")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	require.NoError(t, f.svc.AttachPhoto(ctx, created.NationalID, []byte{0xFF, 0xD8, 0xFF}, "jpeg"))

	bio, err := f.svc.GetPhoto(ctx, created.NationalID)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", bio.PhotoFormat)
	assert.Equal(t, 2, bio.Version)

	require.NoError(t, f.svc.ClearPhoto(ctx, created.NationalID))
	_, err = f.svc.GetPhoto(ctx, created.NationalID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestGetProfile(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()
	created, err := f.svc.Create(ctx, newIdentityInput("123456789012"))
	require.NoError(t, err)

	_, err = f.svc.AddTaxID(ctx, models.TaxID{
		Code:       domain.TaxCode("ABCDE1234F"),
		IssueDate:  time.Date(2015, 4, 1, 0, 0, 0, 0, time.UTC),
		NationalID: created.NationalID,
	})
	require.NoError(t, err)
	_, err = f.svc.AddSimRecord(ctx, models.SimRecord{
		SimNumber:  domain.SimNumber("9000000001"),
		Provider:   "Airtel",
		NationalID: created.NationalID,
	})
	require.NoError(t, err)

	profile, err := f.svc.GetProfile(ctx, created.NationalID)
	require.NoError(t, err)
	assert.Equal(t, created.NationalID, profile.Identity.NationalID)
	assert.False(t, profile.HasPhoto)
	assert.Len(t, profile.TaxIDs, 1)
	assert.Len(t, profile.SimRecords, 1)
	assert.Empty(t, profile.VoterRecords)
	assert.Empty(t, profile.BankAccounts)
}
