package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"civreg/internal/identity/models"
	"civreg/pkg/domain"
	"civreg/pkg/platform/sentinel"
)

// InMemoryStore keeps the whole ownership tree in maps. It backs dev mode and
// doubles as the test fake; it intentionally favors clarity over performance.
type InMemoryStore struct {
	mu           sync.RWMutex
	identities   map[domain.NationalID]models.Identity
	biometrics   map[domain.NationalID]models.Biometric
	taxIDs       map[domain.TaxCode]models.TaxID
	voterRecords map[domain.ElectoralCode]models.VoterRecord
	simRecords   map[domain.SimNumber]models.SimRecord
	bankAccounts map[bankKey]models.BankAccount
}

type bankKey struct {
	accountNumber string
	bankName      string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		identities:   make(map[domain.NationalID]models.Identity),
		biometrics:   make(map[domain.NationalID]models.Biometric),
		taxIDs:       make(map[domain.TaxCode]models.TaxID),
		voterRecords: make(map[domain.ElectoralCode]models.VoterRecord),
		simRecords:   make(map[domain.SimNumber]models.SimRecord),
		bankAccounts: make(map[bankKey]models.BankAccount),
	}
}

func (s *InMemoryStore) InsertIdentity(_ context.Context, identity models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.NationalID]; ok {
		return sentinel.ErrConflict
	}
	if identity.Email != "" {
		for _, existing := range s.identities {
			if strings.EqualFold(existing.Email, identity.Email) {
				return sentinel.ErrConflict
			}
		}
	}
	s.identities[identity.NationalID] = identity
	return nil
}

func (s *InMemoryStore) InsertBiometric(_ context.Context, bio models.Biometric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[bio.NationalID]; !ok {
		return sentinel.ErrIntegrity
	}
	if _, ok := s.biometrics[bio.NationalID]; ok {
		return sentinel.ErrConflict
	}
	s.biometrics[bio.NationalID] = bio
	return nil
}

func (s *InMemoryStore) FindIdentity(_ context.Context, id domain.NationalID) (models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return models.Identity{}, sentinel.ErrNotFound
	}
	return identity, nil
}

// ListIdentities returns all identities ordered by name then national id.
func (s *InMemoryStore) ListIdentities(_ context.Context) ([]models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		out = append(out, identity)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].NationalID < out[j].NationalID
	})
	return out, nil
}

func (s *InMemoryStore) UpdateContact(_ context.Context, id domain.NationalID, mobile domain.Phone, email string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if email != "" {
		for existingID, existing := range s.identities {
			if existingID != id && strings.EqualFold(existing.Email, email) {
				return sentinel.ErrConflict
			}
		}
	}
	identity.Mobile = mobile
	identity.Email = email
	identity.UpdatedAt = now
	s.identities[id] = identity
	return nil
}

// DeleteIdentity removes the identity and every child it owns in this store.
// Case links and the citizen account live in their own stores; the service
// layer removes those first.
func (s *InMemoryStore) DeleteIdentity(_ context.Context, id domain.NationalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.identities, id)
	delete(s.biometrics, id)
	for code, rec := range s.taxIDs {
		if rec.NationalID == id {
			delete(s.taxIDs, code)
		}
	}
	for code, rec := range s.voterRecords {
		if rec.NationalID == id {
			delete(s.voterRecords, code)
		}
	}
	for sim, rec := range s.simRecords {
		if rec.NationalID == id {
			delete(s.simRecords, sim)
		}
	}
	for key, rec := range s.bankAccounts {
		if rec.NationalID == id {
			delete(s.bankAccounts, key)
		}
	}
	return nil
}

func (s *InMemoryStore) FindBiometric(_ context.Context, id domain.NationalID) (models.Biometric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bio, ok := s.biometrics[id]
	if !ok {
		return models.Biometric{}, sentinel.ErrNotFound
	}
	return bio, nil
}

func (s *InMemoryStore) AttachPhoto(_ context.Context, id domain.NationalID, photo []byte, format string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bio, ok := s.biometrics[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	bio.Photo = photo
	bio.PhotoFormat = format
	bio.HasPhoto = true
	bio.Version++
	bio.UpdatedAt = now
	s.biometrics[id] = bio
	return nil
}

func (s *InMemoryStore) ClearPhoto(_ context.Context, id domain.NationalID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bio, ok := s.biometrics[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	bio.Photo = nil
	bio.PhotoFormat = ""
	bio.HasPhoto = false
	bio.Version++
	bio.UpdatedAt = now
	s.biometrics[id] = bio
	return nil
}

func (s *InMemoryStore) InsertTaxID(_ context.Context, rec models.TaxID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[rec.NationalID]; !ok {
		return sentinel.ErrIntegrity
	}
	if _, ok := s.taxIDs[rec.Code]; ok {
		return sentinel.ErrConflict
	}
	s.taxIDs[rec.Code] = rec
	return nil
}

func (s *InMemoryStore) ListTaxIDs(_ context.Context, id domain.NationalID) ([]models.TaxID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TaxID
	for _, rec := range s.taxIDs {
		if rec.NationalID == id {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *InMemoryStore) DeleteTaxID(_ context.Context, code domain.TaxCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.taxIDs[code]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.taxIDs, code)
	return nil
}

func (s *InMemoryStore) InsertVoterRecord(_ context.Context, rec models.VoterRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[rec.NationalID]; !ok {
		return sentinel.ErrIntegrity
	}
	if _, ok := s.voterRecords[rec.ElectoralCode]; ok {
		return sentinel.ErrConflict
	}
	s.voterRecords[rec.ElectoralCode] = rec
	return nil
}

func (s *InMemoryStore) ListVoterRecords(_ context.Context, id domain.NationalID) ([]models.VoterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.VoterRecord
	for _, rec := range s.voterRecords {
		if rec.NationalID == id {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ElectoralCode < out[j].ElectoralCode })
	return out, nil
}

func (s *InMemoryStore) DeleteVoterRecord(_ context.Context, code domain.ElectoralCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.voterRecords[code]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.voterRecords, code)
	return nil
}

func (s *InMemoryStore) InsertSimRecord(_ context.Context, rec models.SimRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[rec.NationalID]; !ok {
		return sentinel.ErrIntegrity
	}
	if _, ok := s.simRecords[rec.SimNumber]; ok {
		return sentinel.ErrConflict
	}
	s.simRecords[rec.SimNumber] = rec
	return nil
}

func (s *InMemoryStore) ListSimRecords(_ context.Context, id domain.NationalID) ([]models.SimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.SimRecord
	for _, rec := range s.simRecords {
		if rec.NationalID == id {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SimNumber < out[j].SimNumber })
	return out, nil
}

func (s *InMemoryStore) DeleteSimRecord(_ context.Context, sim domain.SimNumber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.simRecords[sim]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.simRecords, sim)
	return nil
}

func (s *InMemoryStore) InsertBankAccount(_ context.Context, rec models.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[rec.NationalID]; !ok {
		return sentinel.ErrIntegrity
	}
	key := bankKey{rec.AccountNumber, rec.BankName}
	if _, ok := s.bankAccounts[key]; ok {
		return sentinel.ErrConflict
	}
	s.bankAccounts[key] = rec
	return nil
}

func (s *InMemoryStore) ListBankAccounts(_ context.Context, id domain.NationalID) ([]models.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.BankAccount
	for _, rec := range s.bankAccounts {
		if rec.NationalID == id {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BankName != out[j].BankName {
			return out[i].BankName < out[j].BankName
		}
		return out[i].AccountNumber < out[j].AccountNumber
	})
	return out, nil
}

func (s *InMemoryStore) DeleteBankAccount(_ context.Context, accountNumber, bankName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := bankKey{accountNumber, bankName}
	if _, ok := s.bankAccounts[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.bankAccounts, key)
	return nil
}

func (s *InMemoryStore) EmailInUse(_ context.Context, email string, exclude domain.NationalID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if email == "" {
		return false, nil
	}
	for id, identity := range s.identities {
		if id != exclude && strings.EqualFold(identity.Email, email) {
			return true, nil
		}
	}
	return false, nil
}
