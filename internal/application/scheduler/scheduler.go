package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/detector"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/service"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/ports"
)

var ErrSyncInFlight = errors.New("sync already running")

type Config struct {
	FullSyncAt        string
	RefreshInterval   time.Duration
	ReminderInterval  time.Duration
	ReminderLead      time.Duration
	RetentionDays     int
	DeepRetentionDays int
	DeepSweepEvery    time.Duration
	StartupFreshness  time.Duration
}

// Scheduler drives the periodic jobs: daily full sync (plus retention
// sweep), gated smart refresh followed by a detector pass, reminder scan,
// and the deep retention sweep. Each job runs on its own timer; the two
// provider-calling jobs carry a skip-if-running single-flight guard.
type Scheduler struct {
	log      *zap.Logger
	sync     *service.SyncService
	gate     *service.RefreshGate
	detector *detector.Detector
	store    ports.MatchStore
	marks    ports.ReminderMarks
	sink     ports.NotificationSink
	cfg      Config

	fullSyncMu sync.Mutex
	refreshMu  sync.Mutex

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
	now      func() time.Time
}

func New(
	log *zap.Logger,
	syncSvc *service.SyncService,
	gate *service.RefreshGate,
	det *detector.Detector,
	store ports.MatchStore,
	marks ports.ReminderMarks,
	sink ports.NotificationSink,
	cfg Config,
) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 5 * time.Minute
	}
	if cfg.ReminderInterval <= 0 {
		cfg.ReminderInterval = time.Minute
	}
	if cfg.ReminderLead <= 0 {
		cfg.ReminderLead = 30 * time.Minute
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 2
	}
	if cfg.DeepRetentionDays <= 0 {
		cfg.DeepRetentionDays = 30
	}
	if cfg.DeepSweepEvery <= 0 {
		cfg.DeepSweepEvery = 7 * 24 * time.Hour
	}
	if cfg.StartupFreshness <= 0 {
		cfg.StartupFreshness = 12 * time.Hour
	}

	return &Scheduler{
		log:      log,
		sync:     syncSvc,
		gate:     gate,
		detector: det,
		store:    store,
		marks:    marks,
		sink:     sink,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Start runs the startup freshness check, then launches the job loops.
// If the store is empty or its newest write is stale, a full sync runs
// inline before the first tick so the process never serves a cold cache
// longer than it has to.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	newest, err := s.store.NewestFetchAt(ctx)
	if err != nil {
		s.log.Warn("freshness check failed, forcing initial sync", zap.Error(err))
	}
	if err != nil || newest.IsZero() || s.now().UTC().Sub(newest) > s.cfg.StartupFreshness {
		s.log.Info("cache cold or stale, running initial full sync", zap.Time("newest_fetch", newest))
		if _, err := s.runFullSync(ctx); err != nil && !errors.Is(err, ErrSyncInFlight) {
			s.log.Error("initial full sync failed", zap.Error(err))
		}
	}

	s.wg.Add(4)
	go s.fullSyncLoop(ctx)
	go s.refreshLoop(ctx)
	go s.reminderLoop(ctx)
	go s.deepSweepLoop(ctx)

	s.log.Info("scheduler started",
		zap.String("full_sync_at", s.cfg.FullSyncAt),
		zap.Duration("refresh_interval", s.cfg.RefreshInterval),
		zap.Duration("reminder_interval", s.cfg.ReminderInterval),
	)
	return nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// ForceSyncNow is the administrative trigger. It respects the same
// single-flight guard as the scheduled job.
func (s *Scheduler) ForceSyncNow(ctx context.Context) (service.SyncReport, error) {
	return s.runFullSync(ctx)
}

func (s *Scheduler) fullSyncLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		wait := untilNextDaily(s.now().UTC(), s.cfg.FullSyncAt)
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.runFullSync(ctx); err != nil && !errors.Is(err, ErrSyncInFlight) {
				s.log.Error("scheduled full sync failed", zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) refreshLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runSmartRefresh(ctx)
		}
	}
}

func (s *Scheduler) reminderLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			if err := s.scanReminders(ctx); err != nil {
				s.log.Error("reminder scan failed", zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) deepSweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.DeepSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep(ctx, s.cfg.DeepRetentionDays, "deep")
		}
	}
}

// runFullSync is single-flight: a tick or admin call arriving while a
// sync is in progress is skipped, not queued. The retention sweep runs
// right after a successful sync, per the daily schedule.
func (s *Scheduler) runFullSync(ctx context.Context) (service.SyncReport, error) {
	if !s.fullSyncMu.TryLock() {
		return service.SyncReport{}, ErrSyncInFlight
	}
	defer s.fullSyncMu.Unlock()

	report, err := s.sync.SyncAll(ctx)
	if err != nil {
		return service.SyncReport{}, err
	}

	s.sweep(ctx, s.cfg.RetentionDays, "daily")
	return report, nil
}

// runSmartRefresh consults the gate before spending any provider budget,
// and runs the detector pass strictly after the refresh writes so the
// pass always reads a settled store.
func (s *Scheduler) runSmartRefresh(ctx context.Context) {
	if !s.refreshMu.TryLock() {
		s.log.Debug("smart refresh skipped, previous run still in flight")
		return
	}
	defer s.refreshMu.Unlock()

	worth, err := s.gate.ShouldRefreshNow(ctx)
	if err != nil {
		s.log.Error("refresh gate failed", zap.Error(err))
		return
	}
	if !worth {
		return
	}

	if _, err := s.sync.RefreshFlagged(ctx); err != nil {
		s.log.Error("flagged refresh failed", zap.Error(err))
		return
	}

	if _, err := s.detector.Pass(ctx); err != nil {
		s.log.Error("detector pass failed", zap.Error(err))
	}
}

// scanReminders emits one reminder per match approaching its start. The
// SetNX mark, not resending logic, is what keeps this idempotent.
func (s *Scheduler) scanReminders(ctx context.Context) error {
	now := s.now().UTC()
	upcoming, err := s.store.ListStartingBetween(ctx, now, now.Add(s.cfg.ReminderLead))
	if err != nil {
		return fmt.Errorf("list starting matches: %w", err)
	}

	for _, record := range upcoming {
		if record.State != models.StateScheduled {
			continue
		}

		first, err := s.marks.MarkOnce(ctx, record.ID, s.cfg.ReminderLead+2*time.Hour)
		if err != nil {
			s.log.Warn("reminder mark failed", zap.String("match_id", string(record.ID)), zap.Error(err))
			continue
		}
		if !first {
			continue
		}

		event := models.Event{
			Type:    models.EventReminder,
			MatchID: record.ID,
			Title:   fmt.Sprintf("%s vs %s starts soon", record.Teams[0], record.Teams[1]),
			Message: fmt.Sprintf("Starts at %s", record.StartsAtUTC.Format("15:04 MST")),
			Metadata: map[string]string{
				"venue":  record.Venue,
				"format": string(record.Format),
			},
		}
		if s.sink != nil {
			if err := s.sink.Deliver(ctx, event); err != nil {
				s.log.Warn("reminder delivery failed", zap.String("match_id", string(record.ID)), zap.Error(err))
			}
		}
	}

	return nil
}

func (s *Scheduler) sweep(ctx context.Context, days int, kind string) {
	cutoff := s.now().UTC().AddDate(0, 0, -days)
	deleted, err := s.store.DeleteEndedBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("retention sweep failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	if deleted > 0 {
		s.log.Info("retention sweep finished",
			zap.String("kind", kind),
			zap.Int("days", days),
			zap.Int64("deleted", deleted),
		)
	}
}

// untilNextDaily returns the wait until the next occurrence of the HH:MM
// UTC mark. A malformed mark falls back to 24h from now.
func untilNextDaily(now time.Time, at string) time.Duration {
	var hour, minute int
	if _, err := fmt.Sscanf(at, "%d:%d", &hour, &minute); err != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 24 * time.Hour
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	return next.Sub(now)
}
