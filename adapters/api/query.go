package api

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"hsedash/domain/finding"
	"hsedash/internal/errors"
)

// DateLayout is the format of the from and to query parameters.
const DateLayout = "2006-01-02"

var (
	openStart = time.Time{}
	openEnd   = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// ParseSelection builds a selection from query parameters: from and to
// (YYYY-MM-DD, either may be omitted), category, status and location
// (repeatable; values may contain commas) and unit. "All" clears a filter.
func ParseSelection(q url.Values) (finding.Selection, error) {
	sel := finding.NewSelection()

	from, hasFrom, err := parseDate(q, "from")
	if err != nil {
		return sel, err
	}
	to, hasTo, err := parseDate(q, "to")
	if err != nil {
		return sel, err
	}
	switch {
	case hasFrom && hasTo:
		sel = sel.WithDateRange(from, to)
	case hasFrom:
		sel = sel.WithDateRange(from, openEnd)
	case hasTo:
		sel = sel.WithDateRange(openStart, to)
	}

	return sel.
		WithCategories(values(q, "category")...).
		WithStatuses(values(q, "status")...).
		WithLocations(values(q, "location")...).
		WithOrgUnit(q.Get("unit")), nil
}

// ParseLimit reads a positive integer parameter. Absent means 0.
func ParseLimit(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.InvalidSelection(key + " must be a non-negative integer")
	}
	return n, nil
}

func parseDate(q url.Values, key string) (time.Time, bool, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, false, errors.InvalidSelection(key + " must be a date in YYYY-MM-DD form")
	}
	return t, true, nil
}

// values returns the non-blank values of a repeatable parameter.
func values(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
