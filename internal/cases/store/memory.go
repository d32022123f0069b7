package store

import (
	"context"
	"sort"
	"sync"

	"civreg/internal/cases/models"
	"civreg/pkg/domain"
	"civreg/pkg/platform/sentinel"
)

type linkKey struct {
	caseNumber int64
	nationalID domain.NationalID
}

// InMemoryStore keeps cases and links in maps. Unlike the identity store it
// cannot see the identities table, so Link accepts any national id; the
// service layer checks identity existence first.
type InMemoryStore struct {
	mu       sync.RWMutex
	nextCase int64
	cases    map[int64]models.CriminalCase
	links    map[linkKey]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		nextCase: 1,
		cases:    make(map[int64]models.CriminalCase),
		links:    make(map[linkKey]struct{}),
	}
}

func (s *InMemoryStore) InsertCase(_ context.Context, c models.CriminalCase) (models.CriminalCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.CaseNumber = s.nextCase
	s.nextCase++
	s.cases[c.CaseNumber] = c
	return c, nil
}

func (s *InMemoryStore) FindCase(_ context.Context, caseNumber int64) (models.CriminalCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseNumber]
	if !ok {
		return models.CriminalCase{}, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *InMemoryStore) ListCases(_ context.Context) ([]models.CriminalCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CriminalCase, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CaseNumber < out[j].CaseNumber })
	return out, nil
}

func (s *InMemoryStore) DeleteCase(_ context.Context, caseNumber int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[caseNumber]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.cases, caseNumber)
	for key := range s.links {
		if key.caseNumber == caseNumber {
			delete(s.links, key)
		}
	}
	return nil
}

func (s *InMemoryStore) Link(_ context.Context, caseNumber int64, id domain.NationalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[caseNumber]; !ok {
		return sentinel.ErrIntegrity
	}
	key := linkKey{caseNumber, id}
	if _, ok := s.links[key]; ok {
		return sentinel.ErrConflict
	}
	s.links[key] = struct{}{}
	return nil
}

func (s *InMemoryStore) Unlink(_ context.Context, caseNumber int64, id domain.NationalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := linkKey{caseNumber, id}
	if _, ok := s.links[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.links, key)
	return nil
}

func (s *InMemoryStore) UnlinkAll(_ context.Context, id domain.NationalID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key := range s.links {
		if key.nationalID == id {
			delete(s.links, key)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemoryStore) LinkedIdentities(_ context.Context, caseNumber int64) ([]domain.NationalID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.cases[caseNumber]; !ok {
		return nil, sentinel.ErrNotFound
	}
	var out []domain.NationalID
	for key := range s.links {
		if key.caseNumber == caseNumber {
			out = append(out, key.nationalID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *InMemoryStore) CasesForIdentity(_ context.Context, id domain.NationalID) ([]models.CriminalCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.CriminalCase
	for key := range s.links {
		if key.nationalID == id {
			if c, ok := s.cases[key.caseNumber]; ok {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CaseNumber < out[j].CaseNumber })
	return out, nil
}
