package models

// EventType tags a notification-worthy fact derived from the cache.
type EventType string

const (
	EventWentLive EventType = "match_live"
	EventEnded    EventType = "match_ended"
	EventReminder EventType = "match_reminder"
)

// Event is what the detector and reminder scan hand to the notification
// sink. Metadata is free-form and small (team names, venue, status).
type Event struct {
	Type     EventType
	MatchID  MatchID
	Title    string
	Message  string
	Metadata map[string]string
}
