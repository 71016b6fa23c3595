package handlers

import (
	"net/http"
	"strconv"
	"strings"
)

func parsePositiveIntQuery(r *http.Request, key string, fallback int) (int, string) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, ""
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, "invalid " + key
	}

	return parsed, ""
}

// parseBoolQuery treats an absent parameter as true: the matches view
// includes every group unless a caller opts one out.
func parseBoolQuery(r *http.Request, key string) bool {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return true
	}

	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return parsed
}
