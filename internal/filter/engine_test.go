package filter

import (
	"testing"
	"time"

	"hsedash/domain/finding"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	return &t
}

func fixture() finding.Views {
	master := []finding.Finding{
		{ID: "F1", ReportedAt: at(2024, 1, 5, 9), Category: "Near Miss", Status: "Open", Location: "Boiler", OrgUnit: "Ops", ObjectName: "Pipe, Valve"},
		{ID: "F2", ReportedAt: at(2024, 1, 15, 23), Category: "Unsafe Action", Status: "Closed", Location: "Warehouse", OrgUnit: "HSE", ObjectName: "Cable"},
		{ID: "F3", ReportedAt: at(2024, 2, 1, 0), Category: "Near Miss", Status: "Closed", Location: "Boiler", OrgUnit: "Ops", ObjectName: "Pipe"},
		{ID: "F4", ReportedAt: nil, Category: "Unsafe Condition", Status: "Open", Location: "Jetty", OrgUnit: "Marine"},
	}
	exploded := []finding.Finding{}
	for _, f := range master {
		for _, obj := range []string{"Pipe", "Valve", "Cable"} {
			if f.ID == "F4" {
				break
			}
			if (f.ID == "F1" && obj != "Cable") || (f.ID == "F2" && obj == "Cable") || (f.ID == "F3" && obj == "Pipe") {
				row := f
				row.ObjectName = obj
				// per-object deviation that must not affect filtering
				row.Status = "Deviating"
				exploded = append(exploded, row)
			}
		}
	}
	return finding.Views{
		Schema: finding.NewSchema(finding.ColID, finding.ColReportedAt, finding.ColCategory,
			finding.ColStatus, finding.ColLocation, finding.ColOrgUnit, finding.ColObject),
		Master:   master,
		Exploded: exploded,
	}
}

func ids(rows []finding.Finding) []string {
	out := make([]string, len(rows))
	for i, f := range rows {
		out[i] = f.Key()
	}
	return out
}

func keySet(rows []finding.Finding) map[string]struct{} {
	out := make(map[string]struct{}, len(rows))
	for _, f := range rows {
		out[f.Key()] = struct{}{}
	}
	return out
}

func TestApplyDateRangeInclusive(t *testing.T) {
	sel := finding.NewSelection().WithDateRange(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)

	got := Apply(fixture(), sel)

	assert.Equal(t, []string{"F1", "F2"}, ids(got.Master))
}

func TestApplyDateBoundsIgnoreTimeOfDay(t *testing.T) {
	day := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	got := Apply(fixture(), finding.NewSelection().WithDateRange(day, day))

	assert.Equal(t, []string{"F2"}, ids(got.Master), "23:00 on the end day is in range")
}

func TestApplyDateRangeExcludesMissingDates(t *testing.T) {
	sel := finding.NewSelection().WithDateRange(
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
	)

	got := Apply(fixture(), sel)

	assert.NotContains(t, ids(got.Master), "F4")
	assert.Len(t, got.Master, 3)
}

func TestApplyInvertedRangeIsEmpty(t *testing.T) {
	sel := finding.NewSelection().WithDateRange(
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	)

	got := Apply(fixture(), sel)

	assert.NotNil(t, got.Master)
	assert.Empty(t, got.Master)
	assert.Empty(t, got.Exploded)
	assert.True(t, got.IsFilteredEmpty())
	assert.True(t, got.Schema.Has(finding.ColCategory), "schema is preserved")
}

func TestApplyCategoricalPredicatesAreConjunctive(t *testing.T) {
	tests := []struct {
		name string
		sel  finding.Selection
		want []string
	}{
		{"empty selection passes all", finding.NewSelection(), []string{"F1", "F2", "F3", "F4"}},
		{"category", finding.NewSelection().WithCategories("Near Miss"), []string{"F1", "F3"}},
		{"category and status", finding.NewSelection().WithCategories("Near Miss").WithStatuses("Closed"), []string{"F3"}},
		{"multi location", finding.NewSelection().WithLocations("Jetty", "Warehouse"), []string{"F2", "F4"}},
		{"org unit", finding.NewSelection().WithOrgUnit("Ops"), []string{"F1", "F3"}},
		{"all sentinel", finding.NewSelection().WithStatuses(finding.AllSentinel), []string{"F1", "F2", "F3", "F4"}},
		{"exact match only", finding.NewSelection().WithCategories("near miss"), []string{}},
		{"stale value", finding.NewSelection().WithLocations("Demolished Plant"), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(fixture(), tt.sel)
			assert.Equal(t, tt.want, ids(got.Master))
		})
	}
}

func TestApplyExplodedFollowsMaster(t *testing.T) {
	selections := []finding.Selection{
		finding.NewSelection(),
		finding.NewSelection().WithStatuses("Open"),
		finding.NewSelection().WithCategories("Near Miss"),
		finding.NewSelection().WithLocations("Jetty"),
		finding.NewSelection().WithStatuses("Deviating"),
	}

	for _, sel := range selections {
		t.Run(sel.Key(), func(t *testing.T) {
			views := fixture()
			got := Apply(views, sel)

			master := keySet(got.Master)
			for k := range keySet(got.Exploded) {
				assert.Contains(t, master, k)
			}

			// every surviving finding keeps all of its exploded rows
			want := 0
			for _, row := range views.Exploded {
				if _, ok := master[row.Key()]; ok {
					want++
				}
			}
			assert.Len(t, got.Exploded, want)
		})
	}

	got := Apply(fixture(), finding.NewSelection().WithStatuses("Open"))
	assert.Equal(t, []string{"F1", "F1"}, ids(got.Exploded), "exploded status deviations are ignored")
}

func TestApplyIsIdempotent(t *testing.T) {
	views := fixture()
	sel := finding.NewSelection().WithCategories("Near Miss", "Unsafe Action").WithDateRange(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	)

	first := Apply(views, sel)
	second := Apply(views, sel)
	twice := Apply(first, sel)

	if diff := cmp.Diff(first.Master, second.Master); diff != "" {
		t.Errorf("master differs between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Exploded, second.Exploded); diff != "" {
		t.Errorf("exploded differs between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Master, twice.Master); diff != "" {
		t.Errorf("refiltering changed master (-first +twice):\n%s", diff)
	}
	if diff := cmp.Diff(fixture().Master, views.Master); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestApplyAbsentColumnsAreNoOps(t *testing.T) {
	views := fixture()
	views.Schema = finding.NewSchema(finding.ColID, finding.ColObject)

	sel := finding.NewSelection().
		WithCategories("Nothing").
		WithOrgUnit("Nobody").
		WithDateRange(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC))

	got := Apply(views, sel)

	assert.Len(t, got.Master, 4)
	assert.Len(t, got.Exploded, len(views.Exploded))
}

func TestByParent(t *testing.T) {
	pipe, valve := "pipe", "valve"
	rows := []finding.Finding{
		{ID: "F1", ObjectName: "Pipe bocor", ObjectParent: &pipe},
		{ID: "F1", ObjectName: "Valve", ObjectParent: &valve},
		{ID: "F2", ObjectName: "Pipe retak", ObjectParent: &pipe},
		{ID: "F3", ObjectName: ""},
	}

	assert.Equal(t, []string{"F1", "F2"}, ids(ByParent(rows, "pipe")))
	assert.Len(t, ByParent(rows, finding.AllSentinel), 4)
	assert.Len(t, ByParent(rows, ""), 4)
	assert.Empty(t, ByParent(rows, "ladder"))
}

func TestOptions(t *testing.T) {
	got := Options(fixture().Master)

	assert.Equal(t, []string{"Near Miss", "Unsafe Action", "Unsafe Condition"}, got.Categories)
	assert.Equal(t, []string{"Closed", "Open"}, got.Statuses)
	assert.Equal(t, []string{"Boiler", "Jetty", "Warehouse"}, got.Locations)
	assert.Equal(t, []string{"HSE", "Marine", "Ops"}, got.OrgUnits)
	require.NotNil(t, got.MinDate)
	require.NotNil(t, got.MaxDate)
	assert.Equal(t, 5, got.MinDate.Day())
	assert.Equal(t, time.February, got.MaxDate.Month())

	empty := Options(nil)
	assert.Empty(t, empty.Categories)
	assert.Nil(t, empty.MinDate)
}
