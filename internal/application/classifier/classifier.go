package classifier

import (
	"strings"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
)

// Rules is the static table the classifier runs against. The lists are
// data, not logic: callers may load their own.
type Rules struct {
	MajorTeams    []string
	MajorKeywords []string
	MinorKeywords []string
	Weights       Weights
}

// Weights tune the priority score. They affect sort order only, never
// the accept/reject decision.
type Weights struct {
	FormatTest   int
	FormatODI    int
	FormatT20    int
	FormatOther  int
	PerMajorTeam int
	LiveBonus    int
	RichCoverage int
}

type Result struct {
	Accepted bool
	Priority int
}

type Classifier struct {
	rules Rules
}

func New(rules Rules) *Classifier {
	if len(rules.MajorTeams) == 0 && len(rules.MajorKeywords) == 0 {
		rules = DefaultRules()
	}
	if rules.Weights == (Weights{}) {
		rules.Weights = DefaultRules().Weights
	}
	return &Classifier{rules: rules}
}

// Classify decides whether a raw match is cache-worthy and scores it.
// Pure: no I/O, no state.
func (c *Classifier) Classify(raw models.RawMatch) Result {
	majorCount := 0
	for _, team := range raw.Teams {
		if c.isMajorTeam(team) {
			majorCount++
		}
	}

	seriesMajor := c.isMajorSeries(raw.SeriesName)

	accepted := false
	switch {
	case majorCount >= 1 && (raw.Format == models.FormatTest || raw.Format == models.FormatODI):
		// Long formats with a major side are always cache-worthy,
		// whatever the series.
		accepted = true
	case majorCount == 2:
		accepted = true
	case majorCount == 1:
		// A lone live-coverage flag also admits the match even when the
		// series is not major. Kept as observed upstream behavior.
		accepted = seriesMajor || raw.FantasyEnabled || raw.BBBEnabled
	default:
		// Catches unlisted franchise teams inside known major leagues.
		accepted = seriesMajor
	}

	return Result{
		Accepted: accepted,
		Priority: c.priority(raw, majorCount),
	}
}

// isMajorTeam matches case-normalized substring containment in both
// directions, so "India" matches "India Women"... and "AUS" matches
// "Australia" only when the list carries the short form. Approximate by
// design and tolerant of false positives.
func (c *Classifier) isMajorTeam(team string) bool {
	name := strings.ToLower(strings.TrimSpace(team))
	if name == "" {
		return false
	}
	for _, major := range c.rules.MajorTeams {
		m := strings.ToLower(major)
		if strings.Contains(name, m) || strings.Contains(m, name) {
			return true
		}
	}
	return false
}

// isMajorSeries: a series is major if its name contains any major
// keyword; a minor keyword downgrades it only when no major keyword is
// present. Major keywords always win ties.
func (c *Classifier) isMajorSeries(series string) bool {
	name := strings.ToLower(series)
	if name == "" {
		return false
	}
	for _, kw := range c.rules.MajorKeywords {
		if strings.Contains(name, strings.ToLower(kw)) {
			return true
		}
	}
	for _, kw := range c.rules.MinorKeywords {
		if strings.Contains(name, strings.ToLower(kw)) {
			return false
		}
	}
	return false
}

func (c *Classifier) priority(raw models.RawMatch, majorCount int) int {
	w := c.rules.Weights

	score := 0
	switch raw.Format {
	case models.FormatTest:
		score += w.FormatTest
	case models.FormatODI:
		score += w.FormatODI
	case models.FormatT20:
		score += w.FormatT20
	default:
		score += w.FormatOther
	}

	score += majorCount * w.PerMajorTeam
	if raw.State == models.StateLive {
		score += w.LiveBonus
	}
	if raw.FantasyEnabled || raw.BBBEnabled {
		score += w.RichCoverage
	}

	return score
}
