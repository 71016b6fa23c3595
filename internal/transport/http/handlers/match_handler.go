package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/service"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
)

type MatchHandler struct {
	log     *zap.Logger
	cache   *service.CacheService
	timeout time.Duration
}

type matchResponse struct {
	MatchID  string `json:"match_id"`
	Name     string `json:"name"`
	Format   string `json:"format"`
	TeamA    string `json:"team_a"`
	TeamB    string `json:"team_b"`
	Venue    string `json:"venue,omitempty"`
	StartsAt string `json:"starts_at_utc"`
	Status   string `json:"status,omitempty"`
	State    string `json:"state"`
	SeriesID string `json:"series_id,omitempty"`
	Priority int    `json:"priority"`
}

type groupedResponse struct {
	Live     []matchResponse `json:"live"`
	Upcoming []matchResponse `json:"upcoming"`
	Recent   []matchResponse `json:"recent"`
}

func NewMatchHandler(log *zap.Logger, cache *service.CacheService, timeout time.Duration) *MatchHandler {
	return &MatchHandler{log: log, cache: cache, timeout: timeout}
}

// GetMatches serves the cached matches view. It never reaches the
// provider: upstream outages leave this endpoint serving the last good
// cache state.
func (h *MatchHandler) GetMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := service.MatchQuery{
		IncludeLive:      parseBoolQuery(r, "includeLive"),
		IncludeUpcoming:  parseBoolQuery(r, "includeUpcoming"),
		IncludeCompleted: parseBoolQuery(r, "includeCompleted"),
	}

	var errMsg string
	if query.DaysAhead, errMsg = parsePositiveIntQuery(r, "daysAhead", 7); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	if query.DaysBack, errMsg = parsePositiveIntQuery(r, "daysBack", 3); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	grouped, err := h.cache.GetCachedMatches(ctx, query)
	if err != nil {
		h.log.Error("get cached matches failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, groupedResponse{
		Live:     mapMatches(grouped.Live),
		Upcoming: mapMatches(grouped.Upcoming),
		Recent:   mapMatches(grouped.Recent),
	})
}

func mapMatches(records []models.MatchRecord) []matchResponse {
	out := make([]matchResponse, 0, len(records))
	for _, record := range records {
		out = append(out, matchResponse{
			MatchID:  string(record.ID),
			Name:     record.Name,
			Format:   string(record.Format),
			TeamA:    record.Teams[0],
			TeamB:    record.Teams[1],
			Venue:    record.Venue,
			StartsAt: record.StartsAtUTC.Format(time.RFC3339),
			Status:   record.Status,
			State:    string(record.State),
			SeriesID: record.SeriesID,
			Priority: record.Priority,
		})
	}
	return out
}
