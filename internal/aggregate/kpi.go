package aggregate

import (
	"hsedash/domain/finding"
)

// KPI is the headline row of the dashboard.
type KPI struct {
	TotalFindings int     `json:"total_findings"`
	ClosingRate   float64 `json:"closing_rate"`
	MTTRDays      float64 `json:"mttr_days"`
	Participation int     `json:"participation"`
	OpenNearMiss  int     `json:"open_near_miss"`
}

// KPIs computes the headline figures of master.
func KPIs(master []finding.Finding) KPI {
	return KPI{
		TotalFindings: TotalFindings(master),
		ClosingRate:   ClosingRate(master),
		MTTRDays:      MeanTimeToResolve(master),
		Participation: Participation(master),
		OpenNearMiss:  OpenNearMiss(master),
	}
}
