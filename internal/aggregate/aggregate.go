// Package aggregate computes dashboard metrics over filtered views.
//
// Every function is pure and deterministic: it reads its input without
// modifying it, treats an empty view as a valid case with zero results, and
// breaks count ties by first-seen order.
package aggregate

import (
	"sort"
	"strings"

	"hsedash/domain/finding"
)

// Status labels recognized by StatusBreakdown, compared case-insensitively.
const (
	StatusOpen              = "open"
	StatusClosed            = "closed"
	StatusNeedsVerification = "needs verification"
	StatusOther             = "other"
)

// CategoryNearMiss is the category treated as high risk.
const CategoryNearMiss = "Near Miss"

var recognizedStatuses = []string{StatusOpen, StatusClosed, StatusNeedsVerification}

// Count is one group of a distribution.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TotalFindings counts distinct findings, so repeated rows count once.
func TotalFindings(master []finding.Finding) int {
	seen := make(map[string]struct{}, len(master))
	for _, f := range master {
		seen[f.Key()] = struct{}{}
	}
	return len(seen)
}

// ClosingRate is the percentage of findings whose status is "closed". It is
// 0 for an empty view.
func ClosingRate(master []finding.Finding) float64 {
	total := TotalFindings(master)
	if total == 0 {
		return 0
	}
	return float64(countStatus(master, StatusClosed)) / float64(total) * 100
}

// StatusBreakdown counts rows per recognized status, in the fixed order
// open, closed, needs verification, followed by "other" for every remaining
// value including blanks. All four labels are always present.
func StatusBreakdown(master []finding.Finding) []Count {
	counts := make(map[string]int, len(recognizedStatuses)+1)
	for _, f := range master {
		counts[normalizeStatus(f.Status)]++
	}

	out := make([]Count, 0, len(recognizedStatuses)+1)
	for _, s := range recognizedStatuses {
		out = append(out, Count{Label: s, Count: counts[s]})
	}
	return append(out, Count{Label: StatusOther, Count: counts[StatusOther]})
}

func normalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, known := range recognizedStatuses {
		if s == known {
			return s
		}
	}
	return StatusOther
}

func isStatus(f finding.Finding, status string) bool {
	return strings.EqualFold(strings.TrimSpace(f.Status), status)
}

func countStatus(master []finding.Finding, status string) int {
	n := 0
	for _, f := range master {
		if isStatus(f, status) {
			n++
		}
	}
	return n
}

// CategoryDistribution counts master rows per category, largest first.
// Blank and placeholder categories ("none", "nan", "null") are left out.
func CategoryDistribution(master []finding.Finding) []Count {
	c := newCounter()
	for _, f := range master {
		if isPlaceholder(f.Category) {
			continue
		}
		c.add(f.Category, 1)
	}
	return c.sorted()
}

// TopNByCount counts rows per value of col, largest first, ties in
// first-seen order. Blank values are not a group. n <= 0 returns every group.
func TopNByCount(rows []finding.Finding, col finding.Column, n int) []Count {
	c := newCounter()
	for _, f := range rows {
		if v := f.Field(col); !isPlaceholder(v) {
			c.add(v, 1)
		}
	}
	return limit(c.sorted(), n)
}

// Participation counts distinct non-blank reporters.
func Participation(master []finding.Finding) int {
	seen := make(map[string]struct{})
	for _, f := range master {
		if !isPlaceholder(f.Reporter) {
			seen[f.Reporter] = struct{}{}
		}
	}
	return len(seen)
}

// OpenNearMiss counts open findings in the Near Miss category.
func OpenNearMiss(master []finding.Finding) int {
	n := 0
	for _, f := range master {
		if f.Category == CategoryNearMiss && isStatus(f, StatusOpen) {
			n++
		}
	}
	return n
}

func isPlaceholder(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "none", "nan", "null", "nat", "<na>":
		return true
	}
	return false
}

func limit(counts []Count, n int) []Count {
	if n > 0 && len(counts) > n {
		return counts[:n]
	}
	return counts
}

// counter tallies labels and remembers the order they were first seen in.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(label string, n int) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label] += n
}

// sorted returns counts descending; equal counts keep first-seen order.
func (c *counter) sorted() []Count {
	out := make([]Count, len(c.order))
	for i, label := range c.order {
		out[i] = Count{Label: label, Count: c.counts[label]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
