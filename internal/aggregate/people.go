package aggregate

import (
	"sort"

	"hsedash/domain/finding"
)

// ReporterLoad is one reporter's share of the findings.
type ReporterLoad struct {
	Reporter    string  `json:"reporter"`
	Total       int     `json:"total"`
	Open        int     `json:"open"`
	ClosingRate float64 `json:"closing_rate"`
	Role        string  `json:"role,omitempty"`
	OrgUnit     string  `json:"org_unit,omitempty"`
}

// Workload summarizes findings per reporter, busiest first. ClosingRate is
// (total - open) / total in percent. Role and org unit come from the
// reporter's first row.
func Workload(master []finding.Finding) []ReporterLoad {
	index := make(map[string]int)
	var out []ReporterLoad

	for _, f := range master {
		if isPlaceholder(f.Reporter) {
			continue
		}
		i, ok := index[f.Reporter]
		if !ok {
			i = len(out)
			index[f.Reporter] = i
			out = append(out, ReporterLoad{Reporter: f.Reporter, Role: f.Role, OrgUnit: f.OrgUnit})
		}
		out[i].Total++
		if isStatus(f, StatusOpen) {
			out[i].Open++
		}
	}

	for i := range out {
		out[i].ClosingRate = float64(out[i].Total-out[i].Open) / float64(out[i].Total) * 100
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	if out == nil {
		return []ReporterLoad{}
	}
	return out
}

// TopOpenHolder returns the reporter holding the most open findings. ok is
// false when nothing is open.
func TopOpenHolder(master []finding.Finding) (holder Count, ok bool) {
	c := newCounter()
	for _, f := range master {
		if isStatus(f, StatusOpen) && !isPlaceholder(f.Reporter) {
			c.add(f.Reporter, 1)
		}
	}
	sorted := c.sorted()
	if len(sorted) == 0 {
		return Count{}, false
	}
	return sorted[0], true
}

// UnitPerformance is the completion state of one organizational unit.
type UnitPerformance struct {
	OrgUnit    string  `json:"org_unit"`
	Total      int     `json:"total"`
	Closed     int     `json:"closed"`
	Open       int     `json:"open"`
	Compliance float64 `json:"compliance_pct"`
}

// Departments counts distinct findings and closed findings per org unit,
// highest volume first. Open is total minus closed.
func Departments(master []finding.Finding) []UnitPerformance {
	type unit struct {
		keys   map[string]struct{}
		closed int
	}
	units := make(map[string]*unit)
	order := newCounter()

	for _, f := range master {
		if isPlaceholder(f.OrgUnit) {
			continue
		}
		u, ok := units[f.OrgUnit]
		if !ok {
			u = &unit{keys: make(map[string]struct{})}
			units[f.OrgUnit] = u
		}
		u.keys[f.Key()] = struct{}{}
		if isStatus(f, StatusClosed) {
			u.closed++
		}
		order.add(f.OrgUnit, 1)
	}

	out := make([]UnitPerformance, 0, len(units))
	for _, name := range order.order {
		u := units[name]
		p := UnitPerformance{OrgUnit: name, Total: len(u.keys), Closed: u.closed}
		p.Open = p.Total - p.Closed
		p.Compliance = float64(p.Closed) / float64(p.Total) * 100
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

// Cell is one row/column intersection of a count matrix.
type Cell struct {
	Row    string `json:"row"`
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// CountMatrix is a dense cross tabulation. Counts[i][j] belongs to Rows[i]
// and Columns[j]; labels are sorted.
type CountMatrix struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Counts  [][]int  `json:"counts"`
}

// Matrix cross-tabulates two columns of master, for example org unit by
// category. Rows blank in either column are skipped.
func Matrix(master []finding.Finding, rowCol, colCol finding.Column) CountMatrix {
	cells := make(map[[2]string]int)
	rows := map[string]struct{}{}
	cols := map[string]struct{}{}

	for _, f := range master {
		r, c := f.Field(rowCol), f.Field(colCol)
		if isPlaceholder(r) || isPlaceholder(c) {
			continue
		}
		cells[[2]string{r, c}]++
		rows[r] = struct{}{}
		cols[c] = struct{}{}
	}

	m := CountMatrix{Rows: sortedLabels(rows), Columns: sortedLabels(cols)}
	m.Counts = make([][]int, len(m.Rows))
	for i, r := range m.Rows {
		m.Counts[i] = make([]int, len(m.Columns))
		for j, c := range m.Columns {
			m.Counts[i][j] = cells[[2]string{r, c}]
		}
	}
	return m
}

// Cells lists the non-zero cells of m in row-major order.
func (m CountMatrix) Cells() []Cell {
	var out []Cell
	for i, r := range m.Rows {
		for j, c := range m.Columns {
			if n := m.Counts[i][j]; n > 0 {
				out = append(out, Cell{Row: r, Column: c, Count: n})
			}
		}
	}
	return out
}

func sortedLabels(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
