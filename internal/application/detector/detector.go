package detector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/ports"
)

// pauseVocabulary holds status fragments that mean an interruption, not
// a fresh start. A started flag flipping while one of these is in the
// status text must not read as "just went live".
var pauseVocabulary = []string{
	"rain",
	"delay",
	"stumps",
	"lunch",
	"tea",
	"innings break",
	"drinks",
	"wet outfield",
	"bad light",
}

type snapshot struct {
	state  models.MatchState
	status string
}

// Detector derives lifecycle transition events by diffing the store
// against its own last-observed snapshot. The snapshot is exclusively
// owned here, never persisted: a never-seen match is recorded as a
// baseline silently, so a restart costs at most one detection cycle and
// never floods the sink.
type Detector struct {
	log    *zap.Logger
	store  ports.MatchStore
	sink   ports.NotificationSink
	window time.Duration
	seen   map[models.MatchID]snapshot
	now    func() time.Time
}

func New(log *zap.Logger, store ports.MatchStore, sink ports.NotificationSink, window time.Duration) *Detector {
	if log == nil {
		log = zap.NewNop()
	}
	if window <= 0 {
		window = 48 * time.Hour
	}

	return &Detector{
		log:    log,
		store:  store,
		sink:   sink,
		window: window,
		seen:   make(map[models.MatchID]snapshot),
		now:    time.Now,
	}
}

// Pass reads every match inside ±window of now, emits transition events
// for edges since the previous pass, then prunes snapshot entries that
// left the window. Callers must not run two passes concurrently; the
// scheduler runs Pass sequentially after each refresh.
func (d *Detector) Pass(ctx context.Context) (int, error) {
	const op = "detector.Pass"

	now := d.now().UTC()
	records, err := d.store.ListWindow(ctx, now.Add(-d.window), now.Add(d.window))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	inWindow := make(map[models.MatchID]struct{}, len(records))
	emitted := 0

	for _, record := range records {
		inWindow[record.ID] = struct{}{}

		prev, known := d.seen[record.ID]
		d.seen[record.ID] = snapshot{state: record.State, status: record.Status}

		if !known {
			// Cold start baseline: no event, even for a live match.
			continue
		}

		if wentLive(prev, record) {
			d.deliver(ctx, liveEvent(record))
			emitted++
		}
		if prev.state != models.StateEnded && record.State == models.StateEnded {
			d.deliver(ctx, endedEvent(record))
			emitted++
		}
	}

	for id := range d.seen {
		if _, ok := inWindow[id]; !ok {
			delete(d.seen, id)
		}
	}

	if emitted > 0 {
		d.log.Info("transition pass emitted events", zap.Int("events", emitted))
	}
	return emitted, nil
}

// wentLive is the started edge: previously not started, now live, and the
// status text is not a pause. A match jumping straight from scheduled to
// ended produces only the ended event.
func wentLive(prev snapshot, record models.MatchRecord) bool {
	if prev.state.HasStarted() || record.State != models.StateLive {
		return false
	}
	return !isPauseStatus(record.Status)
}

func isPauseStatus(status string) bool {
	text := strings.ToLower(status)
	for _, word := range pauseVocabulary {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

func (d *Detector) deliver(ctx context.Context, event models.Event) {
	if d.sink == nil {
		return
	}
	if err := d.sink.Deliver(ctx, event); err != nil {
		d.log.Warn("event delivery failed",
			zap.String("type", string(event.Type)),
			zap.String("match_id", string(event.MatchID)),
			zap.Error(err),
		)
	}
}

func liveEvent(record models.MatchRecord) models.Event {
	return models.Event{
		Type:    models.EventWentLive,
		MatchID: record.ID,
		Title:   fmt.Sprintf("%s vs %s is live", record.Teams[0], record.Teams[1]),
		Message: record.Status,
		Metadata: map[string]string{
			"venue":  record.Venue,
			"format": string(record.Format),
		},
	}
}

func endedEvent(record models.MatchRecord) models.Event {
	return models.Event{
		Type:    models.EventEnded,
		MatchID: record.ID,
		Title:   fmt.Sprintf("%s vs %s has ended", record.Teams[0], record.Teams[1]),
		Message: record.Status,
		Metadata: map[string]string{
			"venue":  record.Venue,
			"format": string(record.Format),
		},
	}
}
