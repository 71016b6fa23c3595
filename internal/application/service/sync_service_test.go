package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/classifier"
	derr "github.com/UtkarshNigam11/Syncender-sub001/internal/domain/errors"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/ports"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestSync(provider ports.MatchProvider, store ports.MatchStore, budget ports.CallBudget, limit int) *SyncService {
	svc := NewSyncService(zap.NewNop(), provider, store, budget, classifier.New(classifier.DefaultRules()), limit, 24*time.Hour)
	svc.now = func() time.Time { return testNow }
	return svc
}

func scheduledRaw(id models.MatchID, startsIn time.Duration) models.RawMatch {
	return models.RawMatch{
		ID:          id,
		Name:        "India vs Australia, 3rd ODI",
		Format:      models.FormatODI,
		Teams:       [2]string{"India", "Australia"},
		Venue:       "Wankhede Stadium",
		StartsAtUTC: testNow.Add(startsIn),
		Status:      "Match not started",
		State:       models.StateScheduled,
		SeriesID:    "s1",
		SeriesName:  "India vs Australia, 3rd ODI",
	}
}

func TestSyncAll_CreatesAcceptedRecord(t *testing.T) {
	store := newMemStore()
	provider := &providerMock{
		current: ports.FetchResult{Matches: []models.RawMatch{scheduledRaw("m1", 90*time.Minute)}},
	}

	svc := newTestSync(provider, store, &budgetMock{}, 100)
	report, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Created != 1 || report.Updated != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	record, err := store.GetByID(context.Background(), "m1")
	if err != nil {
		t.Fatalf("expected record stored, got %v", err)
	}
	if !record.NeedsFrequentRefresh {
		t.Fatal("match starting in 90 minutes must be flagged for frequent refresh")
	}
	if record.State != models.StateScheduled {
		t.Fatalf("unexpected state: %s", record.State)
	}
}

func TestSyncAll_Idempotent(t *testing.T) {
	store := newMemStore()
	provider := &providerMock{
		current: ports.FetchResult{Matches: []models.RawMatch{scheduledRaw("m1", 90*time.Minute)}},
	}

	svc := newTestSync(provider, store, &budgetMock{}, 100)
	if _, err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	first := store.records["m1"]

	later := testNow.Add(time.Hour)
	svc.now = func() time.Time { return later }
	report, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if report.Created != 0 || report.Updated != 1 {
		t.Fatalf("second run must update, not create: %+v", report)
	}

	second := store.records["m1"]
	if !second.LastFetchedAt.Equal(later) {
		t.Fatalf("expected refreshed LastFetchedAt, got %v", second.LastFetchedAt)
	}
	second.LastFetchedAt = first.LastFetchedAt
	second.NeedsFrequentRefresh = first.NeedsFrequentRefresh
	if second.Status != first.Status || second.State != first.State || second.Priority != first.Priority {
		t.Fatalf("identical provider output must not change record contents:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestSyncAll_RejectedNotStored(t *testing.T) {
	store := newMemStore()
	minor := models.RawMatch{
		ID:          "m2",
		Format:      models.FormatT20,
		Teams:       [2]string{"Kenya", "Namibia"},
		StartsAtUTC: testNow.Add(time.Hour),
		State:       models.StateScheduled,
		SeriesName:  "African Qualifier",
	}
	provider := &providerMock{current: ports.FetchResult{Matches: []models.RawMatch{minor}}}

	svc := newTestSync(provider, store, &budgetMock{}, 100)
	report, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Rejected != 1 {
		t.Fatalf("expected one rejection, got %+v", report)
	}
	if len(store.records) != 0 {
		t.Fatal("rejected match must not be stored")
	}
}

func TestSyncAll_PerRecordFailureDoesNotAbort(t *testing.T) {
	store := newMemStore()
	store.failUpserts["m-bad"] = errors.New("constraint violation")

	provider := &providerMock{
		current: ports.FetchResult{Matches: []models.RawMatch{
			scheduledRaw("m-bad", time.Hour),
			scheduledRaw("m-good", 2*time.Hour),
		}},
	}

	svc := newTestSync(provider, store, &budgetMock{}, 100)
	report, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("batch must not abort on a per-record failure: %v", err)
	}
	if report.Errors != 1 || report.Created != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if _, ok := store.records["m-good"]; !ok {
		t.Fatal("good record must survive a sibling failure")
	}
}

func TestSyncAll_ProviderFailureLeavesStoreUntouched(t *testing.T) {
	store := newMemStore()
	provider := &providerMock{currentErr: derr.ErrProviderUnavailable}

	svc := newTestSync(provider, store, &budgetMock{}, 100)
	_, err := svc.SyncAll(context.Background())
	if !errors.Is(err, derr.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if len(store.records) != 0 || store.upserts != 0 {
		t.Fatal("store must be untouched after a provider failure")
	}
}

func TestSyncAll_BudgetExhaustedAbortsBeforeCalls(t *testing.T) {
	store := newMemStore()
	provider := &providerMock{}
	budget := &budgetMock{used: 99}

	svc := newTestSync(provider, store, budget, 100)
	_, err := svc.SyncAll(context.Background())
	if !errors.Is(err, derr.ErrBudgetExhausted) {
		t.Fatalf("expected ErrBudgetExhausted, got %v", err)
	}
	if provider.currentCalls != 0 || provider.upcomingCalls != 0 {
		t.Fatal("no provider call may be made once the budget is exhausted")
	}
}

func TestSyncAll_MergePrefersCurrentOverUpcoming(t *testing.T) {
	store := newMemStore()

	live := scheduledRaw("m1", -30*time.Minute)
	live.State = models.StateLive
	live.Status = "In Progress"
	live.ScoreSnapshot = json.RawMessage(`[{"r":120,"w":3}]`)

	stale := scheduledRaw("m1", -30*time.Minute)

	provider := &providerMock{
		current:  ports.FetchResult{Matches: []models.RawMatch{live}},
		upcoming: ports.FetchResult{Matches: []models.RawMatch{stale}},
	}

	svc := newTestSync(provider, store, &budgetMock{}, 100)
	if _, err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	record := store.records["m1"]
	if record.State != models.StateLive {
		t.Fatalf("current-matches entry must win the merge, got state %s", record.State)
	}
}

func TestRefreshFlagged_UpdatesMutableFieldsAndClearsFlag(t *testing.T) {
	store := newMemStore()
	store.records["m1"] = models.MatchRecord{
		ID:                   "m1",
		Teams:                [2]string{"India", "Australia"},
		Format:               models.FormatODI,
		StartsAtUTC:          testNow.Add(-3 * time.Hour),
		Status:               "In Progress",
		State:                models.StateLive,
		NeedsFrequentRefresh: true,
	}

	finished := scheduledRaw("m1", -3*time.Hour)
	finished.State = models.StateEnded
	finished.Status = "Australia won by 5 wickets"

	provider := &providerMock{current: ports.FetchResult{Matches: []models.RawMatch{finished}}}
	budget := &budgetMock{}

	svc := newTestSync(provider, store, budget, 100)
	report, err := svc.RefreshFlagged(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Refreshed != 1 {
		t.Fatalf("expected one refreshed record, got %+v", report)
	}

	record := store.records["m1"]
	if record.State != models.StateEnded {
		t.Fatalf("expected ended state, got %s", record.State)
	}
	if record.NeedsFrequentRefresh {
		t.Fatal("ended record must stop costing refresh calls")
	}
	if budget.used != 1 {
		t.Fatalf("expected exactly one budget unit, got %d", budget.used)
	}
}

func TestRefreshFlagged_NothingFlaggedSkipsProviderCall(t *testing.T) {
	store := newMemStore()
	provider := &providerMock{}

	svc := newTestSync(provider, store, &budgetMock{}, 100)
	report, err := svc.RefreshFlagged(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Refreshed != 0 || provider.currentCalls != 0 {
		t.Fatal("an empty flagged set must not spend a provider call")
	}
}

func TestRefreshFlagged_RejectsOutOfOrderUpdate(t *testing.T) {
	store := newMemStore()
	store.records["m1"] = models.MatchRecord{
		ID:                   "m1",
		Teams:                [2]string{"India", "Australia"},
		StartsAtUTC:          testNow.Add(-time.Hour),
		State:                models.StateLive,
		NeedsFrequentRefresh: true,
	}

	backwards := scheduledRaw("m1", -time.Hour)

	provider := &providerMock{current: ports.FetchResult{Matches: []models.RawMatch{backwards}}}

	svc := newTestSync(provider, store, &budgetMock{}, 100)
	report, err := svc.RefreshFlagged(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Refreshed != 0 {
		t.Fatalf("out-of-order update must be skipped, got %+v", report)
	}
	if store.records["m1"].State != models.StateLive {
		t.Fatal("live record must not move back to scheduled")
	}
}
