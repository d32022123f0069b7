// Package service answers the read-only reporting queries: per-identity
// service counts, threshold and combined-count reports, and the statistics
// screen totals.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	redisplatform "civreg/internal/platform/redis"
	"civreg/internal/reporting/models"
	"civreg/internal/reporting/store"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/platform/sentinel"
)

const countsKeyPrefix = "civreg:counts:"

// RegistrationCounter reports registration requests per workflow status.
type RegistrationCounter interface {
	CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error)
}

// Service serves the aggregate queries. Per-identity counts are cached in
// redis with a short TTL when a cache client is configured; concurrent fills
// for the same identity collapse into one store query. Counts may lag record
// mutations by at most the TTL.
type Service struct {
	store         store.Store
	registrations RegistrationCounter
	cache         *redisplatform.Client
	cacheTTL      time.Duration
	group         singleflight.Group
	logger        *slog.Logger
}

func NewService(
	st store.Store,
	registrations RegistrationCounter,
	cache *redisplatform.Client,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:         st,
		registrations: registrations,
		cache:         cache,
		cacheTTL:      cacheTTL,
		logger:        logger,
	}
}

// ServiceCounts returns the per-kind record counts for one identity.
func (s *Service) ServiceCounts(ctx context.Context, id domain.NationalID) (models.ServiceCounts, error) {
	if s.cache != nil {
		if counts, ok := s.cachedCounts(ctx, id); ok {
			return counts, nil
		}
	}

	v, err, _ := s.group.Do(id.String(), func() (any, error) {
		counts, err := s.store.CountsFor(ctx, id)
		if err != nil {
			return models.ServiceCounts{}, err
		}
		s.storeCounts(ctx, id, counts)
		return counts, nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ServiceCounts{}, dErrors.Wrap(err, dErrors.CodeNotFound, "identity not found")
		}
		return models.ServiceCounts{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count service records")
	}
	return v.(models.ServiceCounts), nil
}

func (s *Service) cachedCounts(ctx context.Context, id domain.NationalID) (models.ServiceCounts, bool) {
	raw, err := s.cache.Get(ctx, countsKeyPrefix+id.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "counts cache read failed", "error", err)
		}
		return models.ServiceCounts{}, false
	}
	var counts models.ServiceCounts
	if err := json.Unmarshal(raw, &counts); err != nil {
		return models.ServiceCounts{}, false
	}
	return counts, true
}

func (s *Service) storeCounts(ctx context.Context, id domain.NationalID, counts models.ServiceCounts) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, countsKeyPrefix+id.String(), raw, s.cacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "counts cache write failed", "error", err)
	}
}

// WithMinimumRecords returns the identities holding at least min records of
// the given kind, ordered by count descending then name ascending.
func (s *Service) WithMinimumRecords(ctx context.Context, kind domain.RecordKind, min int) ([]models.IdentityCount, error) {
	if min < 1 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "minimum record count must be at least 1")
	}
	rows, err := s.store.WithMinimumRecords(ctx, kind, min)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "threshold report failed")
	}
	return rows, nil
}

// MaxCombined returns the identity or identities holding the highest combined
// count across two record kinds. By default every identity sharing the
// maximum is returned; with single set, ties break on the larger secondary
// count, then name ascending.
func (s *Service) MaxCombined(ctx context.Context, primary, secondary domain.RecordKind, single bool) ([]models.CombinedCount, error) {
	if primary == secondary {
		return nil, dErrors.New(dErrors.CodeBadRequest, "combined report needs two distinct record kinds")
	}
	rows, err := s.store.CombinedCounts(ctx, primary, secondary)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "combined report failed")
	}
	if len(rows) == 0 {
		return []models.CombinedCount{}, nil
	}

	top := rows[0].Combined()
	ties := make([]models.CombinedCount, 0, 1)
	for _, row := range rows {
		if row.Combined() != top {
			break
		}
		ties = append(ties, row)
	}
	if !single || len(ties) == 1 {
		return ties, nil
	}

	sort.SliceStable(ties, func(i, j int) bool {
		if ties[i].SecondaryCount != ties[j].SecondaryCount {
			return ties[i].SecondaryCount > ties[j].SecondaryCount
		}
		return ties[i].Name < ties[j].Name
	})
	return ties[:1], nil
}

// Statistics is the admin dashboard summary.
type Statistics struct {
	Totals        models.Totals
	Registrations map[domain.RequestStatus]int
}

// Statistics assembles the table totals and registration counts.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	totals, err := s.store.Totals(ctx)
	if err != nil {
		return Statistics{}, dErrors.Wrap(err, dErrors.CodeInternal, "totals query failed")
	}
	registrations, err := s.registrations.CountByStatus(ctx)
	if err != nil {
		return Statistics{}, dErrors.Wrap(err, dErrors.CodeInternal, "registration counts failed")
	}
	return Statistics{Totals: totals, Registrations: registrations}, nil
}
