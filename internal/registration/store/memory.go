package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"civreg/internal/registration/models"
	"civreg/pkg/domain"
	"civreg/pkg/platform/sentinel"
)

// InMemoryStore keeps registration requests in a map.
type InMemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	requests map[int64]models.RegistrationRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		nextID:   1,
		requests: make(map[int64]models.RegistrationRequest),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, req models.RegistrationRequest) (models.RegistrationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.Status != domain.StatusPending {
			continue
		}
		if strings.EqualFold(existing.Username, req.Username) ||
			existing.NationalID == req.NationalID ||
			(req.Email != "" && strings.EqualFold(existing.Email, req.Email)) {
			return models.RegistrationRequest{}, sentinel.ErrConflict
		}
	}
	req.RequestID = s.nextID
	s.nextID++
	s.requests[req.RequestID] = req
	return req, nil
}

func (s *InMemoryStore) Find(_ context.Context, requestID int64) (models.RegistrationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return models.RegistrationRequest{}, sentinel.ErrNotFound
	}
	return req, nil
}

func (s *InMemoryStore) ListPending(_ context.Context) ([]models.RegistrationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.RegistrationRequest
	for _, req := range s.requests {
		if req.Status == domain.StatusPending {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].RequestID < out[j].RequestID
	})
	return out, nil
}

func (s *InMemoryStore) MarkReviewed(_ context.Context, requestID int64, status domain.RequestStatus, reviewedBy string, reviewedAt time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if req.Status != domain.StatusPending {
		return sentinel.ErrInvalidState
	}
	req.Status = status
	req.ReviewedBy = reviewedBy
	req.ReviewedAt = &reviewedAt
	req.RejectionReason = reason
	s.requests[requestID] = req
	return nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context) (map[domain.RequestStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.RequestStatus]int)
	for _, req := range s.requests {
		out[req.Status]++
	}
	return out, nil
}
