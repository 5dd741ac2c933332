package filter

import (
	"sort"
	"time"

	"hsedash/domain/finding"
)

// Choices is the vocabulary offered by the selection widgets.
type Choices struct {
	Categories []string   `json:"categories"`
	Statuses   []string   `json:"statuses"`
	Locations  []string   `json:"locations"`
	OrgUnits   []string   `json:"org_units"`
	MinDate    *time.Time `json:"min_date,omitempty"`
	MaxDate    *time.Time `json:"max_date,omitempty"`
}

// Options lists the distinct non-empty values of each filterable column in
// master, sorted, plus the report date bounds. Dates are nil when no row has
// one.
func Options(master []finding.Finding) Choices {
	categories := map[string]struct{}{}
	statuses := map[string]struct{}{}
	locations := map[string]struct{}{}
	units := map[string]struct{}{}

	var c Choices
	for _, f := range master {
		addValue(categories, f.Category)
		addValue(statuses, f.Status)
		addValue(locations, f.Location)
		addValue(units, f.OrgUnit)

		if f.ReportedAt == nil {
			continue
		}
		if c.MinDate == nil || f.ReportedAt.Before(*c.MinDate) {
			t := *f.ReportedAt
			c.MinDate = &t
		}
		if c.MaxDate == nil || f.ReportedAt.After(*c.MaxDate) {
			t := *f.ReportedAt
			c.MaxDate = &t
		}
	}

	c.Categories = sortedValues(categories)
	c.Statuses = sortedValues(statuses)
	c.Locations = sortedValues(locations)
	c.OrgUnits = sortedValues(units)
	return c
}

func addValue(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sortedValues(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
