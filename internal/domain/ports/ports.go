package ports

import (
	"context"
	"time"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
)

// MatchStore is the durable cache of match records. It is the only
// shared mutable resource; all writes are upsert-by-key or
// delete-by-predicate.
type MatchStore interface {
	GetByID(ctx context.Context, id models.MatchID) (models.MatchRecord, error)
	Upsert(ctx context.Context, record models.MatchRecord) error
	// ListWindow returns records with a start time in [from, to].
	ListWindow(ctx context.Context, from, to time.Time) ([]models.MatchRecord, error)
	// ListFlagged returns records marked for frequent refresh.
	ListFlagged(ctx context.Context) ([]models.MatchRecord, error)
	// AnyActive reports whether any record is live, or scheduled to start
	// within [now-skew, now+ahead]. Answerable without a provider call.
	AnyActive(ctx context.Context, now time.Time, ahead, skew time.Duration) (bool, error)
	// ListStartingBetween returns non-ended records starting in [from, to].
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.MatchRecord, error)
	// DeleteEndedBefore removes ended records whose start time is older
	// than cutoff and returns how many were removed.
	DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Stats(ctx context.Context) (StoreStats, error)
	// NewestFetchAt returns the most recent LastFetchedAt across the
	// store, or the zero time for an empty store.
	NewestFetchAt(ctx context.Context) (time.Time, error)
}

type StoreStats struct {
	Total    int64
	Live     int64
	Upcoming int64
	Ended    int64
	Flagged  int64
}

// FetchResult is one provider snapshot after validation at the ingest
// boundary. Malformed counts items that failed validation and were
// dropped before classification. HitsToday/HitsLimit mirror the
// provider's own quota accounting when it reports one.
type FetchResult struct {
	Matches   []models.RawMatch
	Malformed int
	HitsToday int
	HitsLimit int
}

// MatchProvider is the rate-limited upstream. Each call consumes one
// budget unit.
type MatchProvider interface {
	FetchCurrentMatches(ctx context.Context) (FetchResult, error)
	FetchUpcomingMatches(ctx context.Context) (FetchResult, error)
}

// CallBudget tracks provider call spend for the current UTC day.
type CallBudget interface {
	// Spend records n provider calls and returns the day's running total.
	Spend(ctx context.Context, n int) (int64, error)
	UsedToday(ctx context.Context) (int64, error)
}

// ReminderMarks is the per-match "already notified" marker used to keep
// reminder events idempotent across rescans and restarts.
type ReminderMarks interface {
	// MarkOnce returns true exactly once per (matchID, ttl window).
	MarkOnce(ctx context.Context, id models.MatchID, ttl time.Duration) (bool, error)
}

// NotificationSink delivers derived events. Fire-and-forget: callers log
// failures and move on.
type NotificationSink interface {
	Deliver(ctx context.Context, event models.Event) error
}
