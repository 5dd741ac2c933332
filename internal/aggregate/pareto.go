package aggregate

import (
	"hsedash/domain/finding"

	"gonum.org/v1/gonum/floats"
)

// ParetoItem is one bar of a Pareto chart. Cumulative is the running share of
// all rows, in percent, up to and including this item.
type ParetoItem struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Cumulative float64 `json:"cumulative_pct"`
}

// Pareto ranks the values of col like TopNByCount and adds the cumulative
// percentage over the whole distribution, so a truncated list still reports
// how much of the total its items cover.
func Pareto(rows []finding.Finding, col finding.Column, n int) []ParetoItem {
	counts := TopNByCount(rows, col, 0)
	if len(counts) == 0 {
		return []ParetoItem{}
	}

	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
	}
	total := floats.Sum(values)
	cumulative := make([]float64, len(values))
	floats.CumSum(cumulative, values)
	floats.Scale(100/total, cumulative)

	counts = limit(counts, n)
	out := make([]ParetoItem, len(counts))
	for i, c := range counts {
		out[i] = ParetoItem{Label: c.Label, Count: c.Count, Cumulative: cumulative[i]}
	}
	return out
}
