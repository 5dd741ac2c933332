package app

import (
	"context"
	"time"

	"hsedash/domain/finding"
	"hsedash/internal"
	"hsedash/internal/aggregate"
	"hsedash/internal/errors"
	"hsedash/internal/filter"
	"hsedash/internal/normalize"
	"hsedash/ports"

	"github.com/google/uuid"
)

// DashboardService answers dashboard queries: it loads the source, reuses
// the normalized views while the source is unchanged, applies the selection
// and runs the aggregations.
type DashboardService struct {
	records   ports.RecordSource
	locations ports.LocationSource
	cache     *normalize.Cache
	settings  Settings
	logger    *internal.Logger
}

// NewDashboardService creates a service. locations may be nil.
func NewDashboardService(
	records ports.RecordSource,
	locations ports.LocationSource,
	cache *normalize.Cache,
	settings Settings,
	logger *internal.Logger,
) *DashboardService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DashboardService{
		records:   records,
		locations: locations,
		cache:     cache,
		settings:  settings.withDefaults(),
		logger:    logger,
	}
}

// Filters echoes the applied selection.
type Filters struct {
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	Statuses   []string   `json:"statuses,omitempty"`
	Locations  []string   `json:"locations,omitempty"`
	OrgUnit    string     `json:"org_unit,omitempty"`
}

func filtersOf(sel finding.Selection) Filters {
	f := Filters{
		Categories: sel.Categories(),
		Statuses:   sel.Statuses(),
		Locations:  sel.Locations(),
		OrgUnit:    sel.OrgUnit(),
	}
	if r, ok := sel.DateRange(); ok {
		from, to := r.From, r.To
		f.From, f.To = &from, &to
	}
	return f
}

// Dashboard is every figure shown for one selection.
type Dashboard struct {
	SnapshotID    uuid.UUID            `json:"snapshot_id"`
	GeneratedAt   time.Time            `json:"generated_at"`
	Filters       Filters              `json:"filters"`
	SourceEmpty   bool                 `json:"source_empty"`
	FilteredEmpty bool                 `json:"filtered_empty"`
	Diagnostics   []finding.Diagnostic `json:"diagnostics,omitempty"`

	KPI           aggregate.KPI               `json:"kpi"`
	Status        []aggregate.Count           `json:"status"`
	Categories    []aggregate.Count           `json:"categories"`
	Trend         []aggregate.Bucket          `json:"trend"`
	TrendBucket   aggregate.BucketSize        `json:"trend_bucket"`
	TopObjects    []aggregate.ParetoItem      `json:"top_objects"`
	Parents       []aggregate.ParentNode      `json:"parents"`
	Flows         aggregate.FlowGraph         `json:"flows"`
	TopLocations  []aggregate.Count           `json:"top_locations"`
	Geo           aggregate.GeoSummary        `json:"geo"`
	Workload      []aggregate.ReporterLoad    `json:"workload"`
	TopOpenHolder *aggregate.Count            `json:"top_open_holder,omitempty"`
	Departments   []aggregate.UnitPerformance `json:"departments"`
	UnitCategory  aggregate.CountMatrix       `json:"unit_category"`
	Resolution    aggregate.ResolutionSummary `json:"resolution"`
	Execution     aggregate.Execution         `json:"execution"`
	Words         []aggregate.Count           `json:"words"`
}

// ObjectsView is the object drill-down: the pareto of the selected rows and
// the rows themselves.
type ObjectsView struct {
	Parent string                 `json:"parent"`
	Pareto []aggregate.ParetoItem `json:"pareto"`
	Rows   []finding.Finding      `json:"rows"`
}

// Snapshot returns the normalized views of the current source with site
// coordinates joined. A source that cannot be read is reported through
// empty views flagged SourceEmpty; other load failures are returned.
func (s *DashboardService) Snapshot(ctx context.Context) (finding.Views, error) {
	raw, err := s.records.LoadRaw(ctx)
	if err != nil {
		if !errors.HasCode(err, errors.CodeEmptySource) {
			return finding.Views{}, errors.Wrap(err, "failed to load findings")
		}
		s.logger.Warn("[DashboardService] source unavailable: %v", err)
		return finding.EmptyViews(finding.NewSchema(), finding.Diagnostic{
			Code:    errors.CodeEmptySource,
			Message: err.Error(),
		}), nil
	}

	views, hit := s.cache.Get(raw)
	s.logger.Debug("[DashboardService] snapshot %s (cached=%t)", views.SnapshotID, hit)

	if s.locations == nil || views.SourceEmpty {
		return views, nil
	}
	sites, err := s.locations.LoadLocations(ctx)
	if err != nil {
		s.logger.Warn("[DashboardService] locations unavailable, map uses row coordinates only: %v", err)
		return views, nil
	}
	return normalize.JoinLocations(views, sites), nil
}

// Dashboard computes every dashboard figure for sel.
func (s *DashboardService) Dashboard(ctx context.Context, sel finding.Selection) (*Dashboard, error) {
	views, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := filter.Apply(views, sel)
	return s.build(filtered, sel), nil
}

func (s *DashboardService) build(v finding.Views, sel finding.Selection) *Dashboard {
	n := s.settings.TopN
	d := &Dashboard{
		SnapshotID:    v.SnapshotID,
		GeneratedAt:   s.settings.Now(),
		Filters:       filtersOf(sel),
		SourceEmpty:   v.IsEmptySource(),
		FilteredEmpty: v.IsFilteredEmpty(),
		Diagnostics:   v.Diagnostics,

		KPI:          aggregate.KPIs(v.Master),
		Status:       aggregate.StatusBreakdown(v.Master),
		Categories:   aggregate.CategoryDistribution(v.Master),
		Trend:        aggregate.FillGaps(aggregate.TimeBucketedCounts(v.Master, s.settings.Bucket), s.settings.Bucket),
		TrendBucket:  s.settings.Bucket,
		TopObjects:   aggregate.Pareto(v.Exploded, finding.ColObject, n),
		Parents:      aggregate.ParentTree(v.Exploded, n),
		Flows:        aggregate.Flows(v.Exploded, v.Schema, n),
		TopLocations: aggregate.TopLocations(v.Master, n),
		Geo:          aggregate.Geo(v.Master),
		Workload:     aggregate.Workload(v.Master),
		Departments:  aggregate.Departments(v.Master),
		UnitCategory: aggregate.Matrix(v.Master, finding.ColOrgUnit, finding.ColCategory),
		Resolution:   aggregate.ResolutionStats(v.Master),
		Execution:    aggregate.ExecutionAt(v.Master, s.settings.Now()),
		Words:        aggregate.WordFrequencies(v.Master, finding.ColCondition, s.settings.Stopwords, n),
	}
	if holder, ok := aggregate.TopOpenHolder(v.Master); ok {
		d.TopOpenHolder = &holder
	}
	return d
}

// snapshotWithData is Snapshot for queries that have nothing to show
// without data: an unavailable source becomes an EMPTY_SOURCE error.
func (s *DashboardService) snapshotWithData(ctx context.Context) (finding.Views, error) {
	views, err := s.Snapshot(ctx)
	if err != nil {
		return finding.Views{}, err
	}
	if views.IsEmptySource() {
		msg := "no findings data available"
		if len(views.Diagnostics) > 0 {
			msg = views.Diagnostics[0].Message
		}
		return finding.Views{}, errors.New(errors.CodeEmptySource, msg)
	}
	return views, nil
}

// Findings returns the master rows matching sel.
func (s *DashboardService) Findings(ctx context.Context, sel finding.Selection) ([]finding.Finding, error) {
	views, err := s.snapshotWithData(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(views, sel).Master, nil
}

// Objects drills into the object rows matching sel, optionally narrowed to
// one parent group. limit caps the pareto; non-positive means the
// configured top N.
func (s *DashboardService) Objects(ctx context.Context, sel finding.Selection, parent string, limit int) (*ObjectsView, error) {
	views, err := s.snapshotWithData(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.settings.TopN
	}
	rows := filter.ByParent(filter.Apply(views, sel).Exploded, parent)
	return &ObjectsView{
		Parent: parent,
		Pareto: aggregate.Pareto(rows, finding.ColObject, limit),
		Rows:   rows,
	}, nil
}

// Options lists the selectable values of the unfiltered data.
func (s *DashboardService) Options(ctx context.Context) (filter.Choices, error) {
	views, err := s.snapshotWithData(ctx)
	if err != nil {
		return filter.Choices{}, err
	}
	return filter.Options(views.Master), nil
}

// Reload drops cached views and reads the source again.
func (s *DashboardService) Reload(ctx context.Context) (finding.Views, error) {
	s.cache.Invalidate()
	views, err := s.Snapshot(ctx)
	if err != nil {
		s.logger.Error("[DashboardService] reload failed: %v", err)
		return finding.Views{}, err
	}
	s.logger.Info("[DashboardService] reloaded: %d findings, %d object rows", len(views.Master), len(views.Exploded))
	return views, nil
}
