package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/classifier"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/scheduler"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/service"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/ports"
)

// blockingProvider parks fetches until released, to hold a sync open
// across a second request.
type blockingProvider struct {
	started chan struct{}
	release chan struct{}
}

func (p *blockingProvider) FetchCurrentMatches(_ context.Context) (ports.FetchResult, error) {
	if p.started != nil {
		close(p.started)
		p.started = nil
	}
	if p.release != nil {
		<-p.release
	}
	return ports.FetchResult{}, nil
}

func (p *blockingProvider) FetchUpcomingMatches(_ context.Context) (ports.FetchResult, error) {
	return ports.FetchResult{}, nil
}

func newAdminHandler(store *stubStore, provider ports.MatchProvider) (*AdminHandler, *scheduler.Scheduler) {
	syncSvc := service.NewSyncService(nil, provider, store, nil, classifier.New(classifier.DefaultRules()), 0, 24*time.Hour)
	sched := scheduler.New(nil, syncSvc, nil, nil, store, nil, nil, scheduler.Config{})
	cache := service.NewCacheService(nil, store, nil, 100)
	return NewAdminHandler(zap.NewNop(), cache, sched, 5*time.Second), sched
}

func TestForceSync_ReturnsReport(t *testing.T) {
	handler, _ := newAdminHandler(newStubStore(), &blockingProvider{})

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/sync", nil)
	rec := httptest.NewRecorder()
	handler.ForceSync(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, key := range []string{"created", "updated", "rejected", "errors"} {
		if _, ok := report[key]; !ok {
			t.Fatalf("missing %q in report: %v", key, report)
		}
	}
}

func TestForceSync_ConflictWhileRunning(t *testing.T) {
	provider := &blockingProvider{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	handler, sched := newAdminHandler(newStubStore(), provider)

	started := provider.started
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = sched.ForceSyncNow(context.Background())
	}()
	<-started

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/sync", nil)
	rec := httptest.NewRecorder()
	handler.ForceSync(rec, req)

	close(provider.release)
	<-done

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while a sync is in flight, got %d", rec.Code)
	}
}

func TestForceSync_MethodNotAllowed(t *testing.T) {
	handler, _ := newAdminHandler(newStubStore(), &blockingProvider{})

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/sync", nil)
	rec := httptest.NewRecorder()
	handler.ForceSync(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestStats_ReportsCounters(t *testing.T) {
	store := newStubStore()
	store.records["m1"] = models.MatchRecord{
		ID: "m1", State: models.StateLive,
		StartsAtUTC:   time.Now().UTC().Add(-time.Hour),
		LastFetchedAt: time.Now().UTC(),
	}
	handler, _ := newAdminHandler(store, &blockingProvider{})

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil)
	rec := httptest.NewRecorder()
	handler.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["total"].(float64) != 1 || payload["live"].(float64) != 1 {
		t.Fatalf("unexpected counters: %v", payload)
	}
	if _, ok := payload["last_sync_at"]; !ok {
		t.Fatalf("expected last_sync_at, got %v", payload)
	}
}

func TestCleanup_RequiresPositiveDays(t *testing.T) {
	handler, _ := newAdminHandler(newStubStore(), &blockingProvider{})

	for _, target := range []string{
		"/v1/admin/cleanup",
		"/v1/admin/cleanup?days=0",
		"/v1/admin/cleanup?days=-1",
		"/v1/admin/cleanup?days=week",
	} {
		req := httptest.NewRequest(http.MethodPost, target, nil)
		rec := httptest.NewRecorder()
		handler.Cleanup(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestCleanup_DeletesOldEndedMatches(t *testing.T) {
	store := newStubStore()
	store.records["old"] = models.MatchRecord{
		ID: "old", State: models.StateEnded,
		StartsAtUTC: time.Now().UTC().AddDate(0, 0, -30),
	}
	handler, _ := newAdminHandler(store, &blockingProvider{})

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/cleanup?days=7", nil)
	rec := httptest.NewRecorder()
	handler.Cleanup(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["deleted"] != 1 {
		t.Fatalf("expected one deleted record, got %v", payload)
	}
	if len(store.records) != 0 {
		t.Fatal("old ended match must be gone")
	}
}
