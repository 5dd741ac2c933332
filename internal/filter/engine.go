// Package filter narrows normalized views to the rows matching a dashboard
// selection while keeping the master and exploded views consistent.
package filter

import (
	"hsedash/domain/finding"
)

// Apply filters master by sel and re-derives exploded from the surviving
// finding keys. Exploded rows are never judged on their own, so the two views
// cannot disagree about which findings are in scope.
//
// Predicates whose column is absent from the schema pass every row. An
// inverted date range or values unknown to the dataset yield empty views,
// never an error. The input is not modified.
func Apply(views finding.Views, sel finding.Selection) finding.Views {
	out := views
	out.Master = filterMaster(views.Schema, views.Master, sel)
	out.Exploded = syncExploded(views.Exploded, out.Master)
	return out
}

func filterMaster(schema finding.Schema, rows []finding.Finding, sel finding.Selection) []finding.Finding {
	preds := predicates(schema, sel)

	out := make([]finding.Finding, 0, len(rows))
	for _, f := range rows {
		if matchAll(preds, f) {
			out = append(out, f)
		}
	}
	return out
}

type predicate func(finding.Finding) bool

func matchAll(preds []predicate, f finding.Finding) bool {
	for _, p := range preds {
		if !p(f) {
			return false
		}
	}
	return true
}

func predicates(schema finding.Schema, sel finding.Selection) []predicate {
	var preds []predicate

	if r, ok := sel.DateRange(); ok && schema.Has(finding.ColReportedAt) {
		if r.Inverted() {
			return []predicate{func(finding.Finding) bool { return false }}
		}
		preds = append(preds, func(f finding.Finding) bool {
			return f.ReportedAt != nil && r.Contains(*f.ReportedAt)
		})
	}
	if len(sel.Categories()) > 0 && schema.Has(finding.ColCategory) {
		preds = append(preds, func(f finding.Finding) bool { return sel.MatchCategory(f.Category) })
	}
	if len(sel.Statuses()) > 0 && schema.Has(finding.ColStatus) {
		preds = append(preds, func(f finding.Finding) bool { return sel.MatchStatus(f.Status) })
	}
	if len(sel.Locations()) > 0 && schema.Has(finding.ColLocation) {
		preds = append(preds, func(f finding.Finding) bool { return sel.MatchLocation(f.Location) })
	}
	if sel.OrgUnit() != "" && schema.Has(finding.ColOrgUnit) {
		preds = append(preds, func(f finding.Finding) bool { return sel.MatchOrgUnit(f.OrgUnit) })
	}
	return preds
}

// syncExploded keeps exactly the exploded rows whose finding survived in master.
func syncExploded(exploded, master []finding.Finding) []finding.Finding {
	out := make([]finding.Finding, 0, len(exploded))
	if len(master) == 0 {
		return out
	}

	keys := make(map[string]struct{}, len(master))
	for _, f := range master {
		keys[f.Key()] = struct{}{}
	}
	for _, row := range exploded {
		if _, ok := keys[row.Key()]; ok {
			out = append(out, row)
		}
	}
	return out
}

// ByParent returns the exploded rows under one object parent. An empty
// parent or the "All" sentinel returns a copy of every row.
func ByParent(exploded []finding.Finding, parent string) []finding.Finding {
	out := make([]finding.Finding, 0, len(exploded))
	for _, row := range exploded {
		if parent == "" || parent == finding.AllSentinel ||
			(row.ObjectParent != nil && *row.ObjectParent == parent) {
			out = append(out, row)
		}
	}
	return out
}
