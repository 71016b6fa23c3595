package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/ports"
)

// RefreshGate decides whether a refresh pass is worth a provider call,
// answering entirely from cached state. A call is justified only while
// something is live or inside the ±window band around its scheduled
// start (the trailing side covers clock skew and delayed status updates).
type RefreshGate struct {
	log    *zap.Logger
	store  ports.MatchStore
	window time.Duration
	now    func() time.Time
}

func NewRefreshGate(log *zap.Logger, store ports.MatchStore, window time.Duration) *RefreshGate {
	if log == nil {
		log = zap.NewNop()
	}
	if window <= 0 {
		window = 2 * time.Hour
	}

	return &RefreshGate{
		log:    log,
		store:  store,
		window: window,
		now:    time.Now,
	}
}

func (g *RefreshGate) ShouldRefreshNow(ctx context.Context) (bool, error) {
	const op = "service.ShouldRefreshNow"

	active, err := g.store.AnyActive(ctx, g.now().UTC(), g.window, g.window)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if !active {
		g.log.Debug("refresh gate closed, nothing in the live window")
	}
	return active, nil
}
