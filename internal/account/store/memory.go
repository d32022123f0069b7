package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"civreg/internal/account/models"
	"civreg/pkg/domain"
	"civreg/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts in maps, keyed by username.
type InMemoryStore struct {
	mu       sync.RWMutex
	citizens map[string]models.CitizenAccount
	admins   map[string]models.AdminAccount
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		citizens: make(map[string]models.CitizenAccount),
		admins:   make(map[string]models.AdminAccount),
	}
}

func (s *InMemoryStore) InsertCitizen(_ context.Context, account models.CitizenAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(account.Username)
	if _, ok := s.citizens[key]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.citizens {
		if existing.NationalID == account.NationalID {
			return sentinel.ErrConflict
		}
	}
	s.citizens[key] = account
	return nil
}

func (s *InMemoryStore) FindCitizen(_ context.Context, username string) (models.CitizenAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.citizens[strings.ToLower(username)]
	if !ok {
		return models.CitizenAccount{}, sentinel.ErrNotFound
	}
	return account, nil
}

func (s *InMemoryStore) FindCitizenByNationalID(_ context.Context, id domain.NationalID) (models.CitizenAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.citizens {
		if account.NationalID == id {
			return account, nil
		}
	}
	return models.CitizenAccount{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) UpdateCitizenLoginState(_ context.Context, username string, failedAttempts int, status domain.AccountStatus, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(username)
	account, ok := s.citizens[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	account.FailedAttempts = failedAttempts
	account.Status = status
	account.UpdatedAt = now
	s.citizens[key] = account
	return nil
}

func (s *InMemoryStore) DeleteCitizenByNationalID(_ context.Context, id domain.NationalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, account := range s.citizens {
		if account.NationalID == id {
			delete(s.citizens, key)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) UsernameTaken(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.citizens[strings.ToLower(username)]
	return ok, nil
}

func (s *InMemoryStore) InsertAdmin(_ context.Context, account models.AdminAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(account.Username)
	if _, ok := s.admins[key]; ok {
		return sentinel.ErrConflict
	}
	s.admins[key] = account
	return nil
}

func (s *InMemoryStore) CountAccounts(_ context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.citizens), len(s.admins), nil
}

func (s *InMemoryStore) FindAdmin(_ context.Context, username string) (models.AdminAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.admins[strings.ToLower(username)]
	if !ok {
		return models.AdminAccount{}, sentinel.ErrNotFound
	}
	return account, nil
}
