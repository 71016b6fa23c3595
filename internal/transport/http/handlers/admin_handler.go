package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/scheduler"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/service"
)

type AdminHandler struct {
	log       *zap.Logger
	cache     *service.CacheService
	scheduler *scheduler.Scheduler
	timeout   time.Duration
}

func NewAdminHandler(log *zap.Logger, cache *service.CacheService, sched *scheduler.Scheduler, timeout time.Duration) *AdminHandler {
	return &AdminHandler{log: log, cache: cache, scheduler: sched, timeout: timeout}
}

func (h *AdminHandler) ForceSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report, err := h.scheduler.ForceSyncNow(ctx)
	if err != nil {
		if errors.Is(err, scheduler.ErrSyncInFlight) {
			writeError(w, http.StatusConflict, "sync already running")
			return
		}
		h.log.Error("forced sync failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "sync failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"created":  report.Created,
		"updated":  report.Updated,
		"rejected": report.Rejected,
		"errors":   report.Errors,
	})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stats, err := h.cache.GetCacheStats(ctx)
	if err != nil {
		h.log.Error("cache stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	payload := map[string]any{
		"total":             stats.Total,
		"live":              stats.Live,
		"upcoming":          stats.Upcoming,
		"ended":             stats.Ended,
		"flagged":           stats.Flagged,
		"budget_used_today": stats.BudgetUsedToday,
		"budget_limit":      stats.BudgetLimit,
	}
	if !stats.LastSyncAt.IsZero() {
		payload["last_sync_at"] = stats.LastSyncAt.Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, payload)
}

func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	days, errMsg := parsePositiveIntQuery(r, "days", 0)
	if errMsg != "" || days == 0 {
		writeError(w, http.StatusBadRequest, "days query is required and must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	deleted, err := h.cache.CleanupOlderThan(ctx, days)
	if err != nil {
		h.log.Error("cleanup failed", zap.Int("days", days), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
