package normalize

import (
	"time"

	"hsedash/domain/finding"
)

// Options controls the normalizer's business rules.
type Options struct {
	// Aliases maps each canonical column to the source headers that may carry
	// it, in priority order. Header matching is case-insensitive.
	Aliases map[finding.Column][]string

	// ExcludedMarker drops any row whose object name contains it
	// (case-insensitive). Empty disables the rule.
	ExcludedMarker string

	// Delimiter separates the objects listed in one object-name cell.
	Delimiter string

	// SLAOffset is added to the report date to derive the SLA deadline.
	SLAOffset time.Duration

	// Parent derives object_parent for master and exploded rows.
	Parent ParentStrategy
}

// DefaultAliases covers the canonical names and the headers of the HSE
// findings export.
func DefaultAliases() map[finding.Column][]string {
	return map[finding.Column][]string{
		finding.ColID:             {"finding_id", "kode_temuan", "id"},
		finding.ColReportedAt:     {"report_datetime", "tanggal", "report_date", "date"},
		finding.ColCategory:       {"category", "temuan_kategori"},
		finding.ColStatus:         {"status", "temuan_status"},
		finding.ColLocation:       {"location_name", "nama_lokasi", "location"},
		finding.ColObject:         {"object_name", "temuan.nama", "temuan_nama_spesifik", "temuan_nama"},
		finding.ColObjectParent:   {"object_parent", "temuan.nama.parent"},
		finding.ColCondition:      {"condition_text", "temuan.kondisi.lemma", "temuan_kondisi", "raw_kondisi"},
		finding.ColRecommendation: {"recommendation_text", "raw_rekomendasi", "temuan.rekomendasi"},
		finding.ColReporter:       {"reporter_id", "creator_name", "reporter"},
		finding.ColOrgUnit:        {"organizational_unit", "team_role", "org_unit"},
		finding.ColRole:           {"role"},
		finding.ColTitle:          {"title", "raw_judul"},
		finding.ColOpenedAt:       {"opened_at", "open_at"},
		finding.ColClosedAt:       {"closed_at", "close_at"},
		finding.ColLatitude:       {"latitude", "lat"},
		finding.ColLongitude:      {"longitude", "lon", "lng"},
	}
}

// DefaultOptions returns the standing rules of the HSE dashboard.
func DefaultOptions() Options {
	return Options{
		Aliases:        DefaultAliases(),
		ExcludedMarker: "dummy",
		Delimiter:      ",",
		SLAOffset:      7 * 24 * time.Hour,
		Parent:         DefaultParent,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Aliases == nil {
		o.Aliases = def.Aliases
	}
	if o.Delimiter == "" {
		o.Delimiter = def.Delimiter
	}
	if o.SLAOffset == 0 {
		o.SLAOffset = def.SLAOffset
	}
	if o.Parent == nil {
		o.Parent = def.Parent
	}
	return o
}
