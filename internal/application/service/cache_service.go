package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	derr "github.com/UtkarshNigam11/Syncender-sub001/internal/domain/errors"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/ports"
)

type MatchQuery struct {
	DaysAhead        int
	DaysBack         int
	IncludeLive      bool
	IncludeUpcoming  bool
	IncludeCompleted bool
}

type GroupedMatches struct {
	Live     []models.MatchRecord
	Upcoming []models.MatchRecord
	Recent   []models.MatchRecord
}

type CacheStats struct {
	Total           int64
	Live            int64
	Upcoming        int64
	Ended           int64
	Flagged         int64
	LastSyncAt      time.Time
	BudgetUsedToday int64
	BudgetLimit     int
}

// CacheService is the read side of the cache boundary. It never touches
// the provider: upstream outages leave it serving the last good state.
type CacheService struct {
	log         *zap.Logger
	store       ports.MatchStore
	budget      ports.CallBudget
	budgetLimit int
	now         func() time.Time
}

func NewCacheService(log *zap.Logger, store ports.MatchStore, budget ports.CallBudget, budgetLimit int) *CacheService {
	if log == nil {
		log = zap.NewNop()
	}

	return &CacheService{
		log:         log,
		store:       store,
		budget:      budget,
		budgetLimit: budgetLimit,
		now:         time.Now,
	}
}

func (s *CacheService) GetCachedMatches(ctx context.Context, query MatchQuery) (GroupedMatches, error) {
	const op = "service.GetCachedMatches"

	if query.DaysAhead <= 0 {
		query.DaysAhead = 7
	}
	if query.DaysBack <= 0 {
		query.DaysBack = 3
	}

	now := s.now().UTC()
	from := now.AddDate(0, 0, -query.DaysBack)
	to := now.AddDate(0, 0, query.DaysAhead)

	records, err := s.store.ListWindow(ctx, from, to)
	if err != nil {
		return GroupedMatches{}, fmt.Errorf("%s: %w", op, err)
	}

	grouped := GroupedMatches{}
	for _, record := range records {
		switch record.State {
		case models.StateLive:
			if query.IncludeLive {
				grouped.Live = append(grouped.Live, record)
			}
		case models.StateScheduled:
			if query.IncludeUpcoming {
				grouped.Upcoming = append(grouped.Upcoming, record)
			}
		case models.StateEnded:
			if query.IncludeCompleted {
				grouped.Recent = append(grouped.Recent, record)
			}
		}
	}

	sortByPriority(grouped.Live)
	sortByStart(grouped.Upcoming)
	// Most recently started first.
	sort.SliceStable(grouped.Recent, func(i, j int) bool {
		return grouped.Recent[i].StartsAtUTC.After(grouped.Recent[j].StartsAtUTC)
	})

	return grouped, nil
}

func (s *CacheService) GetCacheStats(ctx context.Context) (CacheStats, error) {
	const op = "service.GetCacheStats"

	storeStats, err := s.store.Stats(ctx)
	if err != nil {
		return CacheStats{}, fmt.Errorf("%s: %w", op, err)
	}

	lastSync, err := s.store.NewestFetchAt(ctx)
	if err != nil {
		return CacheStats{}, fmt.Errorf("%s: %w", op, err)
	}

	stats := CacheStats{
		Total:       storeStats.Total,
		Live:        storeStats.Live,
		Upcoming:    storeStats.Upcoming,
		Ended:       storeStats.Ended,
		Flagged:     storeStats.Flagged,
		LastSyncAt:  lastSync,
		BudgetLimit: s.budgetLimit,
	}

	if s.budget != nil {
		used, err := s.budget.UsedToday(ctx)
		if err != nil {
			s.log.Warn("call budget read failed", zap.Error(err))
		} else {
			stats.BudgetUsedToday = used
		}
	}

	return stats, nil
}

// CleanupOlderThan is the admin deep sweep: it deletes ended matches
// whose start time is more than the given number of days ago.
func (s *CacheService) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	const op = "service.CleanupOlderThan"

	if days <= 0 {
		return 0, fmt.Errorf("%s: %w: days must be positive", op, derr.ErrMalformedRecord)
	}

	cutoff := s.now().UTC().AddDate(0, 0, -days)
	deleted, err := s.store.DeleteEndedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("manual cleanup finished", zap.Int("days", days), zap.Int64("deleted", deleted))
	return deleted, nil
}

func sortByPriority(records []models.MatchRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority > records[j].Priority
		}
		return records[i].StartsAtUTC.Before(records[j].StartsAtUTC)
	})
}

func sortByStart(records []models.MatchRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartsAtUTC.Before(records[j].StartsAtUTC)
	})
}
