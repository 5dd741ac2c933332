package aggregate

import (
	"time"

	"hsedash/domain/finding"

	"github.com/montanaflynn/stats"
)

// ResolutionSummary describes how long closed findings took to resolve, in
// days.
type ResolutionSummary struct {
	Closed     int     `json:"closed"`
	MeanDays   float64 `json:"mean_days"`
	MedianDays float64 `json:"median_days"`
	P90Days    float64 `json:"p90_days"`
}

// ResolutionStats measures closed findings from opened_at (falling back to the
// report date) to closed_at. Findings missing either end, or closed before
// they opened, are skipped. All figures are 0 when nothing qualifies.
func ResolutionStats(master []finding.Finding) ResolutionSummary {
	durations := resolutionDays(master)
	summary := ResolutionSummary{Closed: len(durations)}
	if len(durations) == 0 {
		return summary
	}

	data := stats.Float64Data(durations)
	if mean, err := data.Mean(); err == nil {
		summary.MeanDays = mean
	}
	if median, err := data.Median(); err == nil {
		summary.MedianDays = median
	}
	if p90, err := data.Percentile(90); err == nil {
		summary.P90Days = p90
	}
	return summary
}

// MeanTimeToResolve is the mean resolution time in days, 0 when nothing is
// resolved.
func MeanTimeToResolve(master []finding.Finding) float64 {
	return ResolutionStats(master).MeanDays
}

func resolutionDays(master []finding.Finding) []float64 {
	out := make([]float64, 0, len(master))
	for _, f := range master {
		if f.ClosedAt == nil || !isStatus(f, StatusClosed) {
			continue
		}
		start := f.OpenedAt
		if start == nil {
			start = f.ReportedAt
		}
		if start == nil || f.ClosedAt.Before(*start) {
			continue
		}
		out = append(out, f.ClosedAt.Sub(*start).Hours()/24)
	}
	return out
}

// Execution holds the follow-up KPIs of open findings at a point in time.
type Execution struct {
	PendingHighRisk int     `json:"pending_high_risk"`
	Overdue         int     `json:"overdue"`
	AvgAgingDays    float64 `json:"avg_aging_days"`
}

// ExecutionAt evaluates open findings against now: how many are open Near
// Miss, how many are past their SLA deadline, and their mean age in whole
// days since report.
func ExecutionAt(master []finding.Finding, now time.Time) Execution {
	e := Execution{PendingHighRisk: OpenNearMiss(master)}

	var ages []float64
	for _, f := range master {
		if !isStatus(f, StatusOpen) {
			continue
		}
		if f.SLADeadline != nil && now.After(*f.SLADeadline) {
			e.Overdue++
		}
		if f.ReportedAt != nil {
			ages = append(ages, float64(int(now.Sub(*f.ReportedAt).Hours()/24)))
		}
	}

	if mean, err := stats.Mean(ages); err == nil {
		e.AvgAgingDays = mean
	}
	return e
}
