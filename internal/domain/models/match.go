package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type MatchID string

type MatchFormat string

const (
	FormatTest  MatchFormat = "test"
	FormatODI   MatchFormat = "odi"
	FormatT20   MatchFormat = "t20"
	FormatOther MatchFormat = "other"
)

// ParseFormat normalizes a provider matchType string. Anything not
// recognized collapses into FormatOther.
func ParseFormat(value string) MatchFormat {
	switch value {
	case "test":
		return FormatTest
	case "odi":
		return FormatODI
	case "t20", "t20i":
		return FormatT20
	default:
		return FormatOther
	}
}

// MatchState is the lifecycle of a cached match. Transitions are
// forward-only: scheduled -> live -> ended. A live match may also end
// directly from scheduled when the provider reports both edges between
// two observations.
type MatchState string

const (
	StateScheduled MatchState = "scheduled"
	StateLive      MatchState = "live"
	StateEnded     MatchState = "ended"
)

func (s MatchState) Valid() bool {
	switch s {
	case StateScheduled, StateLive, StateEnded:
		return true
	}
	return false
}

func (s MatchState) HasStarted() bool {
	return s == StateLive || s == StateEnded
}

func (s MatchState) HasEnded() bool {
	return s == StateEnded
}

// CanTransition reports whether moving from s to next is a legal
// lifecycle step. Staying in place is always legal.
func (s MatchState) CanTransition(next MatchState) bool {
	if s == next {
		return true
	}
	switch s {
	case StateScheduled:
		return next == StateLive || next == StateEnded
	case StateLive:
		return next == StateEnded
	}
	return false
}

// StateFromFlags builds a MatchState from the provider's started/ended
// boolean pair. An ended-but-never-started payload is contradictory and
// rejected.
func StateFromFlags(started, ended bool) (MatchState, error) {
	switch {
	case ended && !started:
		return "", fmt.Errorf("match ended without starting")
	case ended:
		return StateEnded, nil
	case started:
		return StateLive, nil
	default:
		return StateScheduled, nil
	}
}

// MatchRecord is the cached unit. ScoreSnapshot is provider-shaped and
// opaque: it is stored and refreshed but never interpreted here.
type MatchRecord struct {
	ID                   MatchID
	Name                 string
	Format               MatchFormat
	Teams                [2]string
	Venue                string
	StartsAtUTC          time.Time
	Status               string
	State                MatchState
	SeriesID             string
	ScoreSnapshot        json.RawMessage
	Priority             int
	LastFetchedAt        time.Time
	NeedsFrequentRefresh bool
}

// scheduledRefreshGrace bounds the trailing side of the refresh window
// for matches that never went live: the start may slip past the schedule
// by this much before the record stops costing provider calls.
const scheduledRefreshGrace = 2 * time.Hour

// ComputeNeedsRefresh decides whether a record is worth frequent provider
// refreshes: live now, or starting within the lead window. Ended matches
// never are, and a scheduled match abandoned past its start time drops
// out once the grace period runs out.
func ComputeNeedsRefresh(state MatchState, startsAt, now time.Time, lead time.Duration) bool {
	if state == StateEnded {
		return false
	}
	if state == StateLive {
		return true
	}

	until := startsAt.Sub(now)
	return until <= lead && until >= -scheduledRefreshGrace
}

// RawMatch is the validated ingest schema produced from provider DTOs
// before classification. The mapper guarantees ID, both teams and a UTC
// start time are present and the state pair is coherent.
type RawMatch struct {
	ID             MatchID
	Name           string
	Format         MatchFormat
	Teams          [2]string
	Venue          string
	StartsAtUTC    time.Time
	Status         string
	State          MatchState
	SeriesID       string
	SeriesName     string
	FantasyEnabled bool
	BBBEnabled     bool
	ScoreSnapshot  json.RawMessage
}
