package dto

import "encoding/json"

// Envelope is the provider's standard response wrapper. Info carries the
// provider-side quota accounting for the current day.
type Envelope struct {
	Status string          `json:"status"`
	Data   []MatchItem     `json:"data"`
	Info   Info            `json:"info"`
	Reason json.RawMessage `json:"reason,omitempty"`
}

type Info struct {
	HitsToday     int `json:"hitsToday"`
	HitsLimit     int `json:"hitsLimit"`
	TotalRows     int `json:"totalRows"`
	QueryTimeMs   int `json:"queryTime"`
	ServerVersion int `json:"s"`
}

type MatchItem struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	MatchType      string          `json:"matchType"`
	Status         string          `json:"status"`
	Venue          string          `json:"venue"`
	Date           string          `json:"date"`
	DateTimeGMT    string          `json:"dateTimeGMT"`
	Teams          []string        `json:"teams"`
	SeriesID       string          `json:"series_id"`
	FantasyEnabled bool            `json:"fantasyEnabled"`
	BBBEnabled     bool            `json:"bbbEnabled"`
	HasSquad       bool            `json:"hasSquad"`
	MatchStarted   bool            `json:"matchStarted"`
	MatchEnded     bool            `json:"matchEnded"`
	Score          json.RawMessage `json:"score,omitempty"`
}
