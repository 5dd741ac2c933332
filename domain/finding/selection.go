package finding

import (
	"sort"
	"strings"
	"time"
)

// AllSentinel is the "no restriction" value offered by selection widgets.
const AllSentinel = "All"

// DateRange is an inclusive range of calendar dates. Time of day is ignored.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls on a calendar day within the range.
func (r DateRange) Contains(t time.Time) bool {
	day := DayNumber(t)
	return day >= DayNumber(r.From) && day <= DayNumber(r.To)
}

// Inverted reports whether the range starts after it ends.
func (r DateRange) Inverted() bool {
	return DayNumber(r.From) > DayNumber(r.To)
}

// DayNumber maps a time to a sortable calendar-day integer (yyyymmdd) in the
// time's own location.
func DayNumber(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// Selection is the set of active dashboard filters. It is immutable: the
// With methods return modified copies and never touch the receiver's sets.
// An empty set or an empty org unit means "all".
type Selection struct {
	dates      *DateRange
	categories map[string]struct{}
	statuses   map[string]struct{}
	locations  map[string]struct{}
	orgUnit    string
}

// NewSelection returns a selection that passes every row.
func NewSelection() Selection {
	return Selection{}
}

// WithDateRange restricts the selection to an inclusive calendar range.
func (s Selection) WithDateRange(from, to time.Time) Selection {
	s.dates = &DateRange{From: from, To: to}
	return s
}

// WithoutDateRange clears the date restriction.
func (s Selection) WithoutDateRange() Selection {
	s.dates = nil
	return s
}

// WithCategories restricts categories. Passing AllSentinel or nothing clears it.
func (s Selection) WithCategories(values ...string) Selection {
	s.categories = toSet(values)
	return s
}

// WithStatuses restricts statuses. Passing AllSentinel or nothing clears it.
func (s Selection) WithStatuses(values ...string) Selection {
	s.statuses = toSet(values)
	return s
}

// WithLocations restricts locations. Passing AllSentinel or nothing clears it.
func (s Selection) WithLocations(values ...string) Selection {
	s.locations = toSet(values)
	return s
}

// WithOrgUnit restricts to a single organizational unit. "" or AllSentinel clears it.
func (s Selection) WithOrgUnit(unit string) Selection {
	unit = strings.TrimSpace(unit)
	if unit == AllSentinel {
		unit = ""
	}
	s.orgUnit = unit
	return s
}

// DateRange returns the active date range, if any.
func (s Selection) DateRange() (DateRange, bool) {
	if s.dates == nil {
		return DateRange{}, false
	}
	return *s.dates, true
}

// Categories returns the selected categories, sorted.
func (s Selection) Categories() []string { return sortedKeys(s.categories) }

// Statuses returns the selected statuses, sorted.
func (s Selection) Statuses() []string { return sortedKeys(s.statuses) }

// Locations returns the selected locations, sorted.
func (s Selection) Locations() []string { return sortedKeys(s.locations) }

// OrgUnit returns the selected organizational unit, "" for all.
func (s Selection) OrgUnit() string { return s.orgUnit }

// MatchCategory reports whether a category value passes the selection.
func (s Selection) MatchCategory(v string) bool { return matchSet(s.categories, v) }

// MatchStatus reports whether a status value passes the selection.
func (s Selection) MatchStatus(v string) bool { return matchSet(s.statuses, v) }

// MatchLocation reports whether a location value passes the selection.
func (s Selection) MatchLocation(v string) bool { return matchSet(s.locations, v) }

// MatchOrgUnit reports whether an org unit value passes the selection.
func (s Selection) MatchOrgUnit(v string) bool {
	return s.orgUnit == "" || s.orgUnit == v
}

// IsEmpty reports whether the selection restricts nothing.
func (s Selection) IsEmpty() bool {
	return s.dates == nil && len(s.categories) == 0 && len(s.statuses) == 0 &&
		len(s.locations) == 0 && s.orgUnit == ""
}

// Key returns a canonical string form, equal for equal selections.
func (s Selection) Key() string {
	var b strings.Builder
	if s.dates != nil {
		b.WriteString(s.dates.From.Format("2006-01-02"))
		b.WriteString("..")
		b.WriteString(s.dates.To.Format("2006-01-02"))
	}
	b.WriteString("|c=")
	b.WriteString(strings.Join(s.Categories(), ","))
	b.WriteString("|s=")
	b.WriteString(strings.Join(s.Statuses(), ","))
	b.WriteString("|l=")
	b.WriteString(strings.Join(s.Locations(), ","))
	b.WriteString("|u=")
	b.WriteString(s.orgUnit)
	return b.String()
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == AllSentinel {
			return nil
		}
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

func matchSet(set map[string]struct{}, v string) bool {
	if len(set) == 0 {
		return true
	}
	_, ok := set[v]
	return ok
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
