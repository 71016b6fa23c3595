package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/classifier"
	derr "github.com/UtkarshNigam11/Syncender-sub001/internal/domain/errors"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/ports"
)

type SyncReport struct {
	Created  int
	Updated  int
	Rejected int
	Errors   int
}

type RefreshReport struct {
	Refreshed int
}

// SyncService pulls provider snapshots through the classifier into the
// match store, spending provider call budget as it goes.
type SyncService struct {
	log         *zap.Logger
	provider    ports.MatchProvider
	store       ports.MatchStore
	budget      ports.CallBudget
	class       *classifier.Classifier
	dailyBudget int
	refreshLead time.Duration
	now         func() time.Time
}

func NewSyncService(
	log *zap.Logger,
	provider ports.MatchProvider,
	store ports.MatchStore,
	budget ports.CallBudget,
	class *classifier.Classifier,
	dailyBudget int,
	refreshLead time.Duration,
) *SyncService {
	if log == nil {
		log = zap.NewNop()
	}
	if refreshLead <= 0 {
		refreshLead = 24 * time.Hour
	}

	return &SyncService{
		log:         log,
		provider:    provider,
		store:       store,
		budget:      budget,
		class:       class,
		dailyBudget: dailyBudget,
		refreshLead: refreshLead,
		now:         time.Now,
	}
}

// SyncAll fetches the full provider snapshot (current plus upcoming,
// deduplicated by match id), classifies every item and upserts the
// survivors. Per-record failures are counted and never abort the batch;
// a provider failure aborts with the store untouched. Idempotent modulo
// LastFetchedAt.
func (s *SyncService) SyncAll(ctx context.Context) (SyncReport, error) {
	const op = "service.SyncAll"
	tracer := otel.Tracer("matchcache/service")
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	logger := s.log.With(zap.String("op", op))

	if err := s.ensureBudget(ctx, 2); err != nil {
		span.SetStatus(otelcodes.Error, "budget exhausted")
		return SyncReport{}, fmt.Errorf("%s: %w", op, err)
	}

	current, err := s.provider.FetchCurrentMatches(ctx)
	if err != nil {
		s.spend(ctx, 1)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "fetch current failed")
		return SyncReport{}, fmt.Errorf("%s: fetch current: %w", op, err)
	}

	upcoming, err := s.provider.FetchUpcomingMatches(ctx)
	if err != nil {
		s.spend(ctx, 2)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "fetch upcoming failed")
		return SyncReport{}, fmt.Errorf("%s: fetch upcoming: %w", op, err)
	}
	s.spend(ctx, 2)

	merged := mergeSnapshots(current.Matches, upcoming.Matches)

	report := SyncReport{Errors: current.Malformed + upcoming.Malformed}
	now := s.now().UTC()

	for _, raw := range merged {
		result := s.class.Classify(raw)
		if !result.Accepted {
			report.Rejected++
			continue
		}

		created, err := s.upsertClassified(ctx, raw, result.Priority, now)
		if err != nil {
			report.Errors++
			logger.Warn("upsert failed",
				zap.String("match_id", string(raw.ID)),
				zap.Error(err),
			)
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	span.SetAttributes(
		attribute.Int("sync.created", report.Created),
		attribute.Int("sync.updated", report.Updated),
		attribute.Int("sync.rejected", report.Rejected),
		attribute.Int("sync.errors", report.Errors),
	)
	logger.Info("full sync finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("rejected", report.Rejected),
		zap.Int("errors", report.Errors),
	)

	return report, nil
}

// RefreshFlagged refreshes only records already marked for frequent
// refresh, spending a single provider call. Only the mutable fields
// (status, state, score) move; an ended record gets its flag cleared so
// it stops costing calls.
func (s *SyncService) RefreshFlagged(ctx context.Context) (RefreshReport, error) {
	const op = "service.RefreshFlagged"
	tracer := otel.Tracer("matchcache/service")
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	logger := s.log.With(zap.String("op", op))

	flagged, err := s.store.ListFlagged(ctx)
	if err != nil {
		span.RecordError(err)
		return RefreshReport{}, fmt.Errorf("%s: list flagged: %w", op, err)
	}
	if len(flagged) == 0 {
		return RefreshReport{}, nil
	}

	if err := s.ensureBudget(ctx, 1); err != nil {
		span.SetStatus(otelcodes.Error, "budget exhausted")
		return RefreshReport{}, fmt.Errorf("%s: %w", op, err)
	}

	fetched, err := s.provider.FetchCurrentMatches(ctx)
	s.spend(ctx, 1)
	if err != nil {
		span.RecordError(err)
		return RefreshReport{}, fmt.Errorf("%s: fetch current: %w", op, err)
	}

	byID := make(map[models.MatchID]models.RawMatch, len(fetched.Matches))
	for _, raw := range fetched.Matches {
		byID[raw.ID] = raw
	}

	report := RefreshReport{}
	now := s.now().UTC()

	for _, record := range flagged {
		raw, ok := byID[record.ID]
		if !ok {
			continue
		}

		if !record.State.CanTransition(raw.State) {
			logger.Warn("rejected out-of-order state update",
				zap.String("match_id", string(record.ID)),
				zap.String("from", string(record.State)),
				zap.String("to", string(raw.State)),
			)
			continue
		}

		record.Status = raw.Status
		record.State = raw.State
		if len(raw.ScoreSnapshot) > 0 {
			record.ScoreSnapshot = raw.ScoreSnapshot
		}
		record.LastFetchedAt = now
		record.NeedsFrequentRefresh = models.ComputeNeedsRefresh(record.State, record.StartsAtUTC, now, s.refreshLead)

		if err := s.store.Upsert(ctx, record); err != nil {
			logger.Warn("refresh upsert failed",
				zap.String("match_id", string(record.ID)),
				zap.Error(err),
			)
			continue
		}
		report.Refreshed++
	}

	span.SetAttributes(attribute.Int("sync.refreshed", report.Refreshed))
	logger.Info("flagged refresh finished", zap.Int("refreshed", report.Refreshed))

	return report, nil
}

func (s *SyncService) upsertClassified(ctx context.Context, raw models.RawMatch, priority int, now time.Time) (created bool, err error) {
	existing, err := s.store.GetByID(ctx, raw.ID)
	switch {
	case err == nil:
		if !existing.State.CanTransition(raw.State) {
			return false, fmt.Errorf("%w: state %s cannot move to %s", derr.ErrMalformedRecord, existing.State, raw.State)
		}
	case errors.Is(err, derr.ErrMatchNotFound):
		created = true
	default:
		return false, fmt.Errorf("get match: %w", err)
	}

	record := models.MatchRecord{
		ID:                   raw.ID,
		Name:                 raw.Name,
		Format:               raw.Format,
		Teams:                raw.Teams,
		Venue:                raw.Venue,
		StartsAtUTC:          raw.StartsAtUTC,
		Status:               raw.Status,
		State:                raw.State,
		SeriesID:             raw.SeriesID,
		ScoreSnapshot:        raw.ScoreSnapshot,
		Priority:             priority,
		LastFetchedAt:        now,
		NeedsFrequentRefresh: models.ComputeNeedsRefresh(raw.State, raw.StartsAtUTC, now, s.refreshLead),
	}

	if err := s.store.Upsert(ctx, record); err != nil {
		return false, err
	}

	return created, nil
}

// ensureBudget checks the local daily counter before any provider call is
// made. The provider's own quota errors still surface as
// ErrProviderUnavailable if the local count drifts.
func (s *SyncService) ensureBudget(ctx context.Context, calls int) error {
	if s.budget == nil || s.dailyBudget <= 0 {
		return nil
	}

	used, err := s.budget.UsedToday(ctx)
	if err != nil {
		// A broken counter must not take the sync down with it.
		s.log.Warn("call budget read failed", zap.Error(err))
		return nil
	}

	if used+int64(calls) > int64(s.dailyBudget) {
		return fmt.Errorf("%w: used %d of %d", derr.ErrBudgetExhausted, used, s.dailyBudget)
	}

	return nil
}

func (s *SyncService) spend(ctx context.Context, calls int) {
	if s.budget == nil {
		return
	}
	if _, err := s.budget.Spend(ctx, calls); err != nil {
		s.log.Warn("call budget write failed", zap.Error(err))
	}
}

// mergeSnapshots dedups by match id; the current-matches entry wins over
// the upcoming entry because it carries fresher status and score.
func mergeSnapshots(current, upcoming []models.RawMatch) []models.RawMatch {
	merged := make([]models.RawMatch, 0, len(current)+len(upcoming))
	seen := make(map[models.MatchID]struct{}, len(current))

	for _, raw := range current {
		if _, ok := seen[raw.ID]; ok {
			continue
		}
		seen[raw.ID] = struct{}{}
		merged = append(merged, raw)
	}
	for _, raw := range upcoming {
		if _, ok := seen[raw.ID]; ok {
			continue
		}
		seen[raw.ID] = struct{}{}
		merged = append(merged, raw)
	}

	return merged
}
