package aggregate

import (
	"testing"

	"hsedash/domain/finding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parent(s string) *string { return &s }

func explodedRows() []finding.Finding {
	return []finding.Finding{
		{ID: "F1", Category: "Near Miss", ObjectName: "Pipa bocor", ObjectParent: parent("pipa"), Location: "Boiler"},
		{ID: "F1", Category: "Near Miss", ObjectName: "Kabel", ObjectParent: parent("kabel"), Location: "Boiler"},
		{ID: "F2", Category: "Unsafe Action", ObjectName: "Pipa retak", ObjectParent: parent("pipa"), Location: "Jetty"},
		{ID: "F3", Category: "Near Miss", ObjectName: "Pipa bocor", ObjectParent: parent("pipa"), Location: "Warehouse"},
		{ID: "F4", Category: "", ObjectName: "Tangga", ObjectParent: parent("tangga"), Location: "Boiler"},
	}
}

func TestParentTree(t *testing.T) {
	got := ParentTree(explodedRows(), 2)

	require.Len(t, got, 2)
	assert.Equal(t, "pipa", got[0].Parent)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, []Count{{Label: "Pipa bocor", Count: 2}, {Label: "Pipa retak", Count: 1}}, got[0].Children)
	assert.Equal(t, "kabel", got[1].Parent)

	assert.Empty(t, ParentTree(nil, 5))
}

func TestFlows(t *testing.T) {
	schema := finding.NewSchema(finding.ColCategory, finding.ColObject, finding.ColObjectParent, finding.ColLocation)

	t.Run("full graph", func(t *testing.T) {
		g := Flows(explodedRows(), schema, 0)

		assert.Equal(t, []finding.Column{finding.ColCategory, finding.ColObjectParent, finding.ColLocation}, g.Stages)
		assert.Contains(t, g.Links, Link{Source: "Near Miss", Target: "pipa", Value: 2})
		assert.Contains(t, g.Links, Link{Source: "pipa", Target: "Boiler", Value: 1})
		assert.NotContains(t, g.Nodes, "tangga", "row without category is dropped")
		assert.Equal(t, Link{Source: "Near Miss", Target: "pipa", Value: 2}, g.Links[0])
	})

	t.Run("top n groups other locations", func(t *testing.T) {
		g := Flows(explodedRows(), schema, 1)

		assert.NotContains(t, g.Nodes, "kabel")
		assert.Contains(t, g.Nodes, OthersLabel)
		assert.Contains(t, g.Links, Link{Source: "pipa", Target: OthersLabel, Value: 2})
	})

	t.Run("falls back to object name", func(t *testing.T) {
		g := Flows(explodedRows(), finding.NewSchema(finding.ColCategory, finding.ColObject), 0)

		assert.Equal(t, []finding.Column{finding.ColCategory, finding.ColObject}, g.Stages)
		assert.Contains(t, g.Links, Link{Source: "Near Miss", Target: "Pipa bocor", Value: 2})
	})

	t.Run("too few stages", func(t *testing.T) {
		g := Flows(explodedRows(), finding.NewSchema(finding.ColLocation), 0)
		assert.Empty(t, g.Links)
		assert.NotNil(t, g.Nodes)
	})
}

func TestWorkloadAndTopOpenHolder(t *testing.T) {
	master := []finding.Finding{
		{ID: "1", Reporter: "ana", Status: "Open", Role: "Inspector", OrgUnit: "Ops"},
		{ID: "2", Reporter: "budi", Status: "Closed"},
		{ID: "3", Reporter: "ana", Status: "Closed", Role: "Supervisor"},
		{ID: "4", Reporter: "budi", Status: "Open"},
		{ID: "5", Reporter: "budi", Status: "Open"},
		{ID: "6", Reporter: "", Status: "Open"},
	}

	loads := Workload(master)
	require.Len(t, loads, 2)
	assert.Equal(t, "budi", loads[0].Reporter)
	assert.Equal(t, 3, loads[0].Total)
	assert.Equal(t, 2, loads[0].Open)
	assert.InDelta(t, 33.333, loads[0].ClosingRate, 0.001)
	assert.Equal(t, "Inspector", loads[1].Role, "role comes from the first row")
	assert.InDelta(t, 50, loads[1].ClosingRate, 1e-9)

	holder, ok := TopOpenHolder(master)
	require.True(t, ok)
	assert.Equal(t, Count{Label: "budi", Count: 2}, holder)

	_, ok = TopOpenHolder(master[1:2])
	assert.False(t, ok)
	assert.Empty(t, Workload(nil))
}

func TestDepartments(t *testing.T) {
	master := []finding.Finding{
		{ID: "1", OrgUnit: "Ops", Status: "Closed"},
		{ID: "2", OrgUnit: "HSE", Status: "Open"},
		{ID: "3", OrgUnit: "Ops", Status: "Open"},
		{ID: "4", OrgUnit: "Ops", Status: "closed"},
		{ID: "5", OrgUnit: "", Status: "Closed"},
	}

	got := Departments(master)

	require.Len(t, got, 2)
	assert.Equal(t, "Ops", got[0].OrgUnit)
	assert.Equal(t, 3, got[0].Total)
	assert.Equal(t, 2, got[0].Closed)
	assert.Equal(t, 1, got[0].Open)
	assert.InDelta(t, 66.666, got[0].Compliance, 0.01)
	assert.Equal(t, UnitPerformance{OrgUnit: "HSE", Total: 1, Open: 1}, got[1])
}

func TestMatrix(t *testing.T) {
	master := []finding.Finding{
		{OrgUnit: "Ops", Category: "Near Miss"},
		{OrgUnit: "Ops", Category: "Near Miss"},
		{OrgUnit: "HSE", Category: "Unsafe Action"},
		{OrgUnit: "", Category: "Unsafe Action"},
	}

	m := Matrix(master, finding.ColOrgUnit, finding.ColCategory)

	assert.Equal(t, []string{"HSE", "Ops"}, m.Rows)
	assert.Equal(t, []string{"Near Miss", "Unsafe Action"}, m.Columns)
	assert.Equal(t, [][]int{{0, 1}, {2, 0}}, m.Counts)
	assert.Equal(t, []Cell{
		{Row: "HSE", Column: "Unsafe Action", Count: 1},
		{Row: "Ops", Column: "Near Miss", Count: 2},
	}, m.Cells())
}

func TestTopLocationsCountsDistinctFindings(t *testing.T) {
	got := TopLocations(explodedRows(), 0)

	assert.Equal(t, []Count{
		{Label: "Boiler", Count: 2},
		{Label: "Jetty", Count: 1},
		{Label: "Warehouse", Count: 1},
	}, got)
	assert.Len(t, TopLocations(explodedRows(), 1), 1)
}

func TestGeo(t *testing.T) {
	lat1, lon1, lat2, lon2 := -6.0, 106.0, -8.0, 110.0
	master := []finding.Finding{
		{ID: "F1", Latitude: &lat1, Longitude: &lon1},
		{ID: "F2", Latitude: &lat2, Longitude: &lon2},
		{ID: "F3", Latitude: &lat1},
	}

	g := Geo(master)

	require.Len(t, g.Markers, 2)
	assert.Equal(t, "F2", g.Markers[1].FindingID)
	assert.InDelta(t, -7, g.CenterLat, 1e-9)
	assert.InDelta(t, 108, g.CenterLon, 1e-9)

	empty := Geo(nil)
	assert.NotNil(t, empty.Markers)
	assert.Zero(t, empty.CenterLat)
}

func TestWordFrequencies(t *testing.T) {
	rows := []finding.Finding{
		{Condition: "Pipa bocor di area boiler."},
		{Condition: "pipa BOCOR, tidak ada label"},
		{Condition: "Kabel terkelupas dan pipa"},
	}

	got := WordFrequencies(rows, finding.ColCondition, DefaultStopwords, 2)

	assert.Equal(t, []Count{{Label: "Pipa", Count: 3}, {Label: "bocor", Count: 2}}, got)

	all := WordFrequencies(rows, finding.ColCondition, nil, 0)
	labels := make([]string, len(all))
	for i, c := range all {
		labels[i] = c.Label
	}
	assert.Contains(t, labels, "di", "no stopwords removes nothing")
	assert.Empty(t, WordFrequencies(nil, finding.ColCondition, DefaultStopwords, 10))
}
