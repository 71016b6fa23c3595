package classifier

// DefaultRules is a starting table for international cricket. Deployments
// are expected to swap in their own lists.
func DefaultRules() Rules {
	return Rules{
		MajorTeams: []string{
			"india",
			"australia",
			"england",
			"pakistan",
			"south africa",
			"new zealand",
			"sri lanka",
			"west indies",
			"bangladesh",
			"afghanistan",
		},
		MajorKeywords: []string{
			"world cup",
			"champions trophy",
			"world test championship",
			"ashes",
			"indian premier league",
			"ipl",
			"big bash",
			"the hundred",
			"asia cup",
		},
		MinorKeywords: []string{
			"under-19",
			"u19",
			"under 19",
			"emerging",
			"academy",
			"county",
			"2nd xi",
			"invitational",
		},
		Weights: Weights{
			FormatTest:   40,
			FormatODI:    30,
			FormatT20:    20,
			FormatOther:  5,
			PerMajorTeam: 25,
			LiveBonus:    50,
			RichCoverage: 10,
		},
	}
}
