package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"hsedash/domain/finding"
	"hsedash/internal"
	"hsedash/internal/aggregate"
	"hsedash/internal/config"
	"hsedash/internal/errors"
	"hsedash/internal/normalize"
	"hsedash/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportRows() *finding.RawDataset {
	return testkit.Export(
		[]string{"F1", "01/03/2024", "Near Miss", "Open", "Jetty", "Pipe Leak, Valve", "ani", "Maintenance"},
		[]string{"F2", "05/03/2024", "Unsafe Condition", "Closed", "Boiler", "Cable", "budi", "Operations"},
		[]string{"F3", "20/03/2024", "Near Miss", "Closed", "Jetty", "Pipe Crack", "ani", "Maintenance"},
		[]string{"F1", "01/03/2024", "Near Miss", "Open", "Jetty", "duplicate", "ani", "Maintenance"},
		[]string{"F4", "21/03/2024", "Near Miss", "Open", "Jetty", "Dummy pipe", "citra", "Operations"},
	)
}

var fixedNow = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

func newService(records, locations *testkit.Source) (*DashboardService, *normalize.Cache) {
	logger := internal.NewNopLogger()
	cache := normalize.NewCache(normalize.NewNormalizer(normalize.DefaultOptions(), logger), time.Minute)
	settings := Settings{Now: func() time.Time { return fixedNow }}
	if locations == nil {
		return NewDashboardService(records, nil, cache, settings, logger), cache
	}
	return NewDashboardService(records, locations, cache, settings, logger), cache
}

func TestDashboardUnfiltered(t *testing.T) {
	svc, _ := newService(&testkit.Source{Data: exportRows()}, nil)

	d, err := svc.Dashboard(context.Background(), finding.NewSelection())
	require.NoError(t, err)

	assert.False(t, d.SourceEmpty)
	assert.False(t, d.FilteredEmpty)
	assert.Equal(t, fixedNow, d.GeneratedAt)
	assert.Equal(t, 3, d.KPI.TotalFindings, "duplicate and dummy rows are dropped")
	assert.InDelta(t, 66.67, d.KPI.ClosingRate, 0.01)
	assert.Equal(t, 1, d.KPI.OpenNearMiss)
	assert.Equal(t, aggregate.Week, d.TrendBucket)
	assert.Equal(t, []aggregate.Count{{Label: "Near Miss", Count: 2}, {Label: "Unsafe Condition", Count: 1}}, d.Categories)
	require.NotNil(t, d.TopOpenHolder)
	assert.Equal(t, "ani", d.TopOpenHolder.Label)
	assert.Len(t, d.TopObjects, 4)
}

func TestDashboardAppliesSelection(t *testing.T) {
	svc, _ := newService(&testkit.Source{Data: exportRows()}, nil)

	sel := finding.NewSelection().WithLocations("Jetty")
	d, err := svc.Dashboard(context.Background(), sel)
	require.NoError(t, err)

	assert.Equal(t, 2, d.KPI.TotalFindings)
	assert.Equal(t, []string{"Jetty"}, d.Filters.Locations)
	assert.Nil(t, d.Filters.From)

	sel = finding.NewSelection().WithOrgUnit("Nobody")
	d, err = svc.Dashboard(context.Background(), sel)
	require.NoError(t, err)
	assert.True(t, d.FilteredEmpty)
	assert.Equal(t, 0, d.KPI.TotalFindings)
	assert.Equal(t, float64(0), d.KPI.ClosingRate)
}

func TestSnapshotReusesCache(t *testing.T) {
	records := &testkit.Source{Data: exportRows()}
	svc, cache := newService(records, nil)

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	second, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.SnapshotID, second.SnapshotID)
	assert.Equal(t, 2, records.LoadCount, "the source is read every time, normalization is not")
	assert.Equal(t, 1, cache.Len())

	reloaded, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.SnapshotID, reloaded.SnapshotID)
}

func TestSnapshotEmptySource(t *testing.T) {
	records := &testkit.Source{Err: errors.EmptySource("findings.xlsx", fmt.Errorf("no such file"))}
	svc, _ := newService(records, nil)

	views, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, views.IsEmptySource())
	require.Len(t, views.Diagnostics, 1)
	assert.Equal(t, errors.CodeEmptySource, views.Diagnostics[0].Code)

	d, err := svc.Dashboard(context.Background(), finding.NewSelection())
	require.NoError(t, err)
	assert.True(t, d.SourceEmpty)
	assert.False(t, d.FilteredEmpty)

	_, err = svc.Options(context.Background())
	assert.Equal(t, errors.CodeEmptySource, errors.GetCode(err))
	_, err = svc.Findings(context.Background(), finding.NewSelection())
	assert.Equal(t, errors.CodeEmptySource, errors.GetCode(err))
}

func TestSnapshotPropagatesOtherErrors(t *testing.T) {
	records := &testkit.Source{Err: errors.InvalidInput("unsupported file type: .json")}
	svc, _ := newService(records, nil)

	_, err := svc.Dashboard(context.Background(), finding.NewSelection())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestSnapshotJoinsLocations(t *testing.T) {
	locations := &testkit.Source{Sites: []finding.Location{{Name: "jetty", Latitude: -5.6, Longitude: 105.4}}}
	svc, _ := newService(&testkit.Source{Data: exportRows()}, locations)

	d, err := svc.Dashboard(context.Background(), finding.NewSelection())
	require.NoError(t, err)
	assert.Len(t, d.Geo.Markers, 2)
	assert.InDelta(t, -5.6, d.Geo.CenterLat, 1e-9)

	locations.SitesErr = fmt.Errorf("table unavailable")
	d, err = svc.Dashboard(context.Background(), finding.NewSelection())
	require.NoError(t, err, "a missing location table only degrades the map")
	assert.Empty(t, d.Geo.Markers)
}

func TestObjectsDrillDown(t *testing.T) {
	svc, _ := newService(&testkit.Source{Data: exportRows()}, nil)

	view, err := svc.Objects(context.Background(), finding.NewSelection(), "pipe", 0)
	require.NoError(t, err)
	assert.Equal(t, "pipe", view.Parent)
	require.Len(t, view.Rows, 2)
	assert.Len(t, view.Pareto, 2)

	all, err := svc.Objects(context.Background(), finding.NewSelection(), "All", 1)
	require.NoError(t, err)
	assert.Len(t, all.Rows, 4)
	assert.Len(t, all.Pareto, 1)
}

func TestOptionsAndFindings(t *testing.T) {
	svc, _ := newService(&testkit.Source{Data: exportRows()}, nil)

	choices, err := svc.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Boiler", "Jetty"}, choices.Locations)
	assert.Equal(t, []string{"Maintenance", "Operations"}, choices.OrgUnits)

	rows, err := svc.Findings(context.Background(), finding.NewSelection().WithStatuses("Closed"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestNormalizeOptions(t *testing.T) {
	opts := NormalizeOptions(config.RulesConfig{
		ExcludedMarker: "sample",
		SLADays:        3,
		Aliases: map[string][]string{
			"finding_id":  {"no_temuan"},
			"not_a_field": {"x"},
		},
	})

	assert.Equal(t, "sample", opts.ExcludedMarker)
	assert.Equal(t, ",", opts.Delimiter)
	assert.Equal(t, 72*time.Hour, opts.SLAOffset)
	assert.Equal(t, "no_temuan", opts.Aliases[finding.ColID][0])
	assert.Contains(t, opts.Aliases[finding.ColID], "kode_temuan")

	defaults := NormalizeOptions(config.RulesConfig{})
	assert.Equal(t, "dummy", defaults.ExcludedMarker)

	settings := SettingsFromRules(config.RulesConfig{TopN: 5})
	assert.Equal(t, 5, settings.TopN)
	assert.Equal(t, aggregate.DefaultStopwords, settings.Stopwords)
}
