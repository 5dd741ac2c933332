package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"hsedash/domain/finding"
	"hsedash/internal/errors"
)

// BucketSize is the calendar period of a time series.
type BucketSize string

const (
	Day   BucketSize = "day"
	Week  BucketSize = "week"
	Month BucketSize = "month"
)

// ParseBucketSize accepts day, week or month in any case.
func ParseBucketSize(s string) (BucketSize, error) {
	switch b := BucketSize(strings.ToLower(strings.TrimSpace(s))); b {
	case Day, Week, Month:
		return b, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown bucket size %q, want day, week or month", s))
}

// Bucket is the number of distinct findings reported in the period that
// begins at Start.
type Bucket struct {
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

// Start returns the first instant of the period containing t, in t's
// location. Weeks start on Monday.
func (b BucketSize) Start(t time.Time) time.Time {
	y, m, d := t.Date()
	switch b {
	case Week:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
}

// Next returns the start of the period after the one starting at start.
func (b BucketSize) Next(start time.Time) time.Time {
	switch b {
	case Week:
		return start.AddDate(0, 0, 7)
	case Month:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// TimeBucketedCounts counts distinct findings per period, ordered by period
// start. Rows without a report date are skipped. Only periods with findings
// appear; see FillGaps for a dense series.
func TimeBucketedCounts(master []finding.Finding, size BucketSize) []Bucket {
	type bucket struct {
		start time.Time
		keys  map[string]struct{}
	}
	byStart := make(map[int64]*bucket)

	for _, f := range master {
		if f.ReportedAt == nil {
			continue
		}
		start := size.Start(*f.ReportedAt)
		b, ok := byStart[start.Unix()]
		if !ok {
			b = &bucket{start: start, keys: make(map[string]struct{})}
			byStart[start.Unix()] = b
		}
		b.keys[f.Key()] = struct{}{}
	}

	out := make([]Bucket, 0, len(byStart))
	for _, b := range byStart {
		out = append(out, Bucket{Start: b.start, Count: len(b.keys)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// FillGaps inserts zero buckets for the periods missing between the first
// and last bucket of a sorted series.
func FillGaps(buckets []Bucket, size BucketSize) []Bucket {
	if len(buckets) < 2 {
		return append([]Bucket(nil), buckets...)
	}

	out := make([]Bucket, 0, len(buckets))
	next := buckets[0].Start
	for _, b := range buckets {
		for next.Before(b.Start) {
			out = append(out, Bucket{Start: next})
			next = size.Next(next)
		}
		out = append(out, b)
		next = size.Next(b.Start)
	}
	return out
}
