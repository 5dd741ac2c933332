package app

import (
	"strings"
	"time"

	"hsedash/domain/finding"
	"hsedash/internal/aggregate"
	"hsedash/internal/config"
	"hsedash/internal/normalize"
)

// DefaultTopN caps the ranked lists of the dashboard.
const DefaultTopN = 10

// NormalizeOptions overlays the configured rules on the built-in ones.
// Configured column aliases are tried before the built-in aliases of the
// same column; unknown column names are ignored.
func NormalizeOptions(rules config.RulesConfig) normalize.Options {
	opts := normalize.DefaultOptions()
	if rules.ExcludedMarker != "" {
		opts.ExcludedMarker = rules.ExcludedMarker
	}
	if rules.Delimiter != "" {
		opts.Delimiter = rules.Delimiter
	}
	if rules.SLADays > 0 {
		opts.SLAOffset = time.Duration(rules.SLADays) * 24 * time.Hour
	}

	known := make(map[finding.Column]bool, len(finding.SourceColumns))
	for _, col := range finding.SourceColumns {
		known[col] = true
	}
	for name, headers := range rules.Aliases {
		col := finding.Column(strings.ToLower(strings.TrimSpace(name)))
		if !known[col] || len(headers) == 0 {
			continue
		}
		merged := append([]string{}, headers...)
		opts.Aliases[col] = append(merged, opts.Aliases[col]...)
	}
	return opts
}

// SettingsFromRules derives the presentation settings from the rules.
func SettingsFromRules(rules config.RulesConfig) Settings {
	s := Settings{TopN: rules.TopN, Stopwords: rules.Stopwords}
	return s.withDefaults()
}

// Settings tune the dashboard aggregations.
type Settings struct {
	TopN      int
	Stopwords []string
	Bucket    aggregate.BucketSize
	Now       func() time.Time
}

func (s Settings) withDefaults() Settings {
	if s.TopN <= 0 {
		s.TopN = DefaultTopN
	}
	if len(s.Stopwords) == 0 {
		s.Stopwords = aggregate.DefaultStopwords
	}
	if s.Bucket == "" {
		s.Bucket = aggregate.Week
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}
