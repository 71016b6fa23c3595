package service

import (
	"context"
	"sort"
	"time"

	derr "github.com/UtkarshNigam11/Syncender-sub001/internal/domain/errors"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/ports"
)

// memStore is a map-backed MatchStore with the same query semantics as
// the postgres repository, shared by the service tests.
type memStore struct {
	records     map[models.MatchID]models.MatchRecord
	failUpserts map[models.MatchID]error
	failAll     error
	upserts     int
}

func newMemStore() *memStore {
	return &memStore{
		records:     make(map[models.MatchID]models.MatchRecord),
		failUpserts: make(map[models.MatchID]error),
	}
}

func (m *memStore) GetByID(_ context.Context, id models.MatchID) (models.MatchRecord, error) {
	if m.failAll != nil {
		return models.MatchRecord{}, m.failAll
	}
	record, ok := m.records[id]
	if !ok {
		return models.MatchRecord{}, derr.ErrMatchNotFound
	}
	return record, nil
}

func (m *memStore) Upsert(_ context.Context, record models.MatchRecord) error {
	if m.failAll != nil {
		return m.failAll
	}
	if err, ok := m.failUpserts[record.ID]; ok {
		return err
	}
	m.records[record.ID] = record
	m.upserts++
	return nil
}

func (m *memStore) ListWindow(_ context.Context, from, to time.Time) ([]models.MatchRecord, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []models.MatchRecord
	for _, record := range m.records {
		if !record.StartsAtUTC.Before(from) && !record.StartsAtUTC.After(to) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].StartsAtUTC.Before(out[j].StartsAtUTC)
	})
	return out, nil
}

func (m *memStore) ListFlagged(_ context.Context) ([]models.MatchRecord, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []models.MatchRecord
	for _, record := range m.records {
		if record.NeedsFrequentRefresh {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAtUTC.Before(out[j].StartsAtUTC) })
	return out, nil
}

func (m *memStore) AnyActive(_ context.Context, now time.Time, ahead, skew time.Duration) (bool, error) {
	if m.failAll != nil {
		return false, m.failAll
	}
	for _, record := range m.records {
		if record.State == models.StateLive {
			return true, nil
		}
		if record.State == models.StateScheduled &&
			!record.StartsAtUTC.Before(now.Add(-skew)) &&
			!record.StartsAtUTC.After(now.Add(ahead)) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListStartingBetween(_ context.Context, from, to time.Time) ([]models.MatchRecord, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []models.MatchRecord
	for _, record := range m.records {
		if record.State == models.StateEnded {
			continue
		}
		if !record.StartsAtUTC.Before(from) && !record.StartsAtUTC.After(to) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAtUTC.Before(out[j].StartsAtUTC) })
	return out, nil
}

func (m *memStore) DeleteEndedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if m.failAll != nil {
		return 0, m.failAll
	}
	var deleted int64
	for id, record := range m.records {
		if record.State == models.StateEnded && record.StartsAtUTC.Before(cutoff) {
			delete(m.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memStore) Stats(_ context.Context) (ports.StoreStats, error) {
	if m.failAll != nil {
		return ports.StoreStats{}, m.failAll
	}
	stats := ports.StoreStats{Total: int64(len(m.records))}
	for _, record := range m.records {
		switch record.State {
		case models.StateLive:
			stats.Live++
		case models.StateScheduled:
			stats.Upcoming++
		case models.StateEnded:
			stats.Ended++
		}
		if record.NeedsFrequentRefresh {
			stats.Flagged++
		}
	}
	return stats, nil
}

func (m *memStore) NewestFetchAt(_ context.Context) (time.Time, error) {
	if m.failAll != nil {
		return time.Time{}, m.failAll
	}
	var newest time.Time
	for _, record := range m.records {
		if record.LastFetchedAt.After(newest) {
			newest = record.LastFetchedAt
		}
	}
	return newest, nil
}

type providerMock struct {
	current       ports.FetchResult
	currentErr    error
	upcoming      ports.FetchResult
	upcomingErr   error
	currentCalls  int
	upcomingCalls int
}

func (p *providerMock) FetchCurrentMatches(_ context.Context) (ports.FetchResult, error) {
	p.currentCalls++
	return p.current, p.currentErr
}

func (p *providerMock) FetchUpcomingMatches(_ context.Context) (ports.FetchResult, error) {
	p.upcomingCalls++
	return p.upcoming, p.upcomingErr
}

type budgetMock struct {
	used int64
}

func (b *budgetMock) Spend(_ context.Context, n int) (int64, error) {
	b.used += int64(n)
	return b.used, nil
}

func (b *budgetMock) UsedToday(_ context.Context) (int64, error) {
	return b.used, nil
}

type sinkRecorder struct {
	events []models.Event
	err    error
}

func (s *sinkRecorder) Deliver(_ context.Context, event models.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}
