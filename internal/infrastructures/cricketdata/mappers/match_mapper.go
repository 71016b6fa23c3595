package mappers

import (
	"fmt"
	"strings"
	"time"

	derr "github.com/UtkarshNigam11/Syncender-sub001/internal/domain/errors"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/infrastructures/cricketdata/dto"
)

// ToRawMatch validates a provider item into the ingest schema. Anything
// missing an id, exactly two teams, a parseable start time, or a coherent
// started/ended pair is rejected as malformed before it can reach the
// classifier.
func ToRawMatch(item dto.MatchItem) (models.RawMatch, error) {
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return models.RawMatch{}, fmt.Errorf("%w: empty match id", derr.ErrMalformedRecord)
	}
	if len(item.Teams) != 2 {
		return models.RawMatch{}, fmt.Errorf("%w: match %s has %d teams", derr.ErrMalformedRecord, id, len(item.Teams))
	}

	startsAt, err := parseStartTime(item.DateTimeGMT, item.Date)
	if err != nil {
		return models.RawMatch{}, fmt.Errorf("%w: match %s: %v", derr.ErrMalformedRecord, id, err)
	}

	state, err := models.StateFromFlags(item.MatchStarted, item.MatchEnded)
	if err != nil {
		return models.RawMatch{}, fmt.Errorf("%w: match %s: %v", derr.ErrMalformedRecord, id, err)
	}

	return models.RawMatch{
		ID:          models.MatchID(id),
		Name:        item.Name,
		Format:      models.ParseFormat(strings.ToLower(strings.TrimSpace(item.MatchType))),
		Teams:       [2]string{item.Teams[0], item.Teams[1]},
		Venue:       item.Venue,
		StartsAtUTC: startsAt.UTC(),
		Status:      item.Status,
		State:       state,
		SeriesID:    item.SeriesID,
		// The provider folds the series title into the match name
		// ("India vs Australia, 3rd ODI, Border-Gavaskar Trophy"), so the
		// full name is what keyword matching runs against.
		SeriesName:     item.Name,
		FantasyEnabled: item.FantasyEnabled,
		BBBEnabled:     item.BBBEnabled,
		ScoreSnapshot:  item.Score,
	}, nil
}

func parseStartTime(dateTimeGMT, date string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, dateTimeGMT)
		if err == nil {
			return t, nil
		}
	}

	// Some upcoming entries carry only a date.
	if date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported datetime format: %q", dateTimeGMT)
}
