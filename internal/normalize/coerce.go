package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Day-first layouts are tried before ISO forms. Go's "2" and "1" accept one
// or two digits, so "5/1/2024" and "05/01/2024" share a layout.
var dayFirstLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
	"2.1.2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"2-Jan-06",
}

// Excel serial day numbers between these bounds are read as dates
// (roughly 1954 to 2119). Smaller numbers are more likely years or codes.
const (
	minExcelSerial = 20000
	maxExcelSerial = 80000
)

var integralFloat = regexp.MustCompile(`^-?\d+\.0+$`)

// parseDayFirst parses a report date the way the findings export writes it.
// ok is false for blank or unparseable input.
func parseDayFirst(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || isPlaceholder(s) {
		return time.Time{}, false
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= minExcelSerial && serial <= maxExcelSerial {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// canonicalString trims a cell and rewrites integral floats ("12.0") as
// integers so ids and codes exported as numbers compare equal to their
// text form.
func canonicalString(raw string) string {
	s := strings.TrimSpace(raw)
	if integralFloat.MatchString(s) {
		return s[:strings.IndexByte(s, '.')]
	}
	return s
}

// parseCoordinate parses a latitude/longitude cell, accepting a decimal comma.
func parseCoordinate(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || isPlaceholder(s) {
		return 0, false
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// isPlaceholder reports whether a cell holds a textual null marker.
func isPlaceholder(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nan", "nat", "none", "null", "<na>":
		return true
	}
	return false
}
