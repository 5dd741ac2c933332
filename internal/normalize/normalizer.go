// Package normalize turns a raw findings table into the master and exploded
// views consumed by the filter engine and the aggregators.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"hsedash/domain/finding"
	"hsedash/internal"
	"hsedash/internal/errors"

	"github.com/google/uuid"
)

// optionalColumns are reported as MISSING_COLUMN diagnostics when absent.
var optionalColumns = []finding.Column{
	finding.ColID, finding.ColReportedAt, finding.ColCategory, finding.ColStatus,
	finding.ColLocation, finding.ColObject, finding.ColReporter, finding.ColOrgUnit,
}

// Normalizer converts raw datasets into views. It holds no per-dataset state
// and is safe for concurrent use.
type Normalizer struct {
	opts   Options
	logger *internal.Logger
}

// NewNormalizer creates a normalizer. Zero-valued option fields take defaults.
func NewNormalizer(opts Options, logger *internal.Logger) *Normalizer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Normalizer{opts: opts.withDefaults(), logger: logger}
}

// Options returns the effective options.
func (n *Normalizer) Options() Options {
	return n.opts
}

// Normalize builds master and exploded views from raw. It never fails:
// missing columns disable the steps that need them, unparseable cells become
// missing values, and an absent or empty dataset yields empty views flagged
// as SourceEmpty.
func (n *Normalizer) Normalize(raw *finding.RawDataset) finding.Views {
	if raw == nil {
		n.logger.Warn("[Normalizer] no dataset supplied")
		return finding.EmptyViews(finding.NewSchema(), finding.Diagnostic{
			Code:    errors.CodeEmptySource,
			Message: "no dataset supplied",
		})
	}

	columns := ResolveColumns(raw.Headers, n.opts.Aliases)
	schema := schemaOf(columns)
	if schema.Has(finding.ColReportedAt) {
		schema = schema.With(finding.ColSLADeadline)
	}
	if schema.Has(finding.ColObject) {
		schema = schema.With(finding.ColObjectParent)
	}

	if len(raw.Rows) == 0 {
		n.logger.Warn("[Normalizer] dataset %q has no rows", raw.Source)
		return finding.EmptyViews(schema, finding.Diagnostic{
			Code:    errors.CodeEmptySource,
			Message: fmt.Sprintf("dataset %q has no rows", raw.Source),
		})
	}

	diag := newDiagnostics()
	for _, col := range optionalColumns {
		if !schema.Has(col) {
			diag.missing(col)
		}
	}

	cleaned := make([]cleanRow, 0, len(raw.Rows))
	excluded := 0
	for i, row := range raw.Rows {
		if n.isExcluded(row, columns) {
			excluded++
			continue
		}
		cleaned = append(cleaned, n.buildRow(i, row, columns, diag))
	}

	kept := dedupe(cleaned, schema.Has(finding.ColID))
	master := make([]finding.Finding, len(kept))
	for i, r := range kept {
		master[i] = r.finding
	}
	exploded := n.explode(kept, schema.Has(finding.ColObject))

	views := finding.Views{
		SnapshotID:  uuid.New(),
		Fingerprint: raw.Fingerprint(),
		Schema:      schema,
		Master:      master,
		Exploded:    exploded,
		Diagnostics: diag.list(),
	}

	n.logger.Info("[Normalizer] %s: %d raw rows, %d excluded, %d findings, %d object rows",
		raw.Source, len(raw.Rows), excluded, len(master), len(exploded))

	return views
}

func (n *Normalizer) isExcluded(row finding.RawRecord, columns map[finding.Column]string) bool {
	header, ok := columns[finding.ColObject]
	if !ok || n.opts.ExcludedMarker == "" {
		return false
	}
	return strings.Contains(strings.ToLower(row[header]), strings.ToLower(n.opts.ExcludedMarker))
}

// cleanRow is a normalized finding plus the parent value its source
// supplied, kept apart from the derived parent so explosion can re-derive
// it per token.
type cleanRow struct {
	finding  finding.Finding
	supplied *string
}

func (n *Normalizer) buildRow(index int, row finding.RawRecord, columns map[finding.Column]string, diag *diagnostics) cleanRow {
	cell := func(col finding.Column) string {
		header, ok := columns[col]
		if !ok {
			return ""
		}
		return row[header]
	}
	text := func(col finding.Column) string {
		v := strings.TrimSpace(cell(col))
		if isPlaceholder(v) {
			return ""
		}
		return v
	}
	key := func(col finding.Column) string {
		v := canonicalString(cell(col))
		if isPlaceholder(v) {
			return ""
		}
		return v
	}

	f := finding.Finding{
		Row:            index,
		ID:             key(finding.ColID),
		Category:       key(finding.ColCategory),
		Status:         key(finding.ColStatus),
		Location:       key(finding.ColLocation),
		ObjectName:     text(finding.ColObject),
		Condition:      text(finding.ColCondition),
		Recommendation: text(finding.ColRecommendation),
		Reporter:       text(finding.ColReporter),
		OrgUnit:        text(finding.ColOrgUnit),
		Role:           text(finding.ColRole),
		Title:          text(finding.ColTitle),
	}

	var supplied *string
	if _, ok := columns[finding.ColObjectParent]; ok {
		if p := text(finding.ColObjectParent); p != "" {
			supplied = &p
		}
	}

	f.ReportedAt = n.parseDate(cell(finding.ColReportedAt), finding.ColReportedAt, diag)
	if f.ReportedAt != nil {
		deadline := f.ReportedAt.Add(n.opts.SLAOffset)
		f.SLADeadline = &deadline
	}
	f.OpenedAt = n.parseDate(cell(finding.ColOpenedAt), finding.ColOpenedAt, diag)
	f.ClosedAt = n.parseDate(cell(finding.ColClosedAt), finding.ColClosedAt, diag)

	f.Latitude = parseCoord(cell(finding.ColLatitude), finding.ColLatitude, diag)
	f.Longitude = parseCoord(cell(finding.ColLongitude), finding.ColLongitude, diag)

	// A master row listing several objects takes its parent from the first.
	var first string
	if tokens := n.objectTokens(f.ObjectName); len(tokens) > 0 {
		first = tokens[0]
	}
	f.ObjectParent = n.opts.Parent(first, supplied)

	return cleanRow{finding: f, supplied: supplied}
}

// objectTokens splits an object-name cell on the delimiter, trimming each
// token and dropping blanks.
func (n *Normalizer) objectTokens(name string) []string {
	var tokens []string
	for _, token := range strings.Split(name, n.opts.Delimiter) {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func (n *Normalizer) parseDate(raw string, col finding.Column, diag *diagnostics) *time.Time {
	if strings.TrimSpace(raw) == "" || isPlaceholder(raw) {
		return nil
	}
	t, ok := parseDayFirst(raw)
	if !ok {
		diag.unparseable(col)
		return nil
	}
	return &t
}

func parseCoord(raw string, col finding.Column, diag *diagnostics) *float64 {
	if strings.TrimSpace(raw) == "" || isPlaceholder(raw) {
		return nil
	}
	v, ok := parseCoordinate(raw)
	if !ok {
		diag.unparseable(col)
		return nil
	}
	return &v
}

// dedupe keeps the first row seen for each finding id, in input order.
// Without an id column, or with a blank id, a row is its own finding.
func dedupe(rows []cleanRow, hasID bool) []cleanRow {
	if !hasID {
		return rows
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([]cleanRow, 0, len(rows))
	for _, r := range rows {
		if r.finding.ID == "" {
			out = append(out, r)
			continue
		}
		if _, dup := seen[r.finding.ID]; dup {
			continue
		}
		seen[r.finding.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// explode emits one row per delimited object token of each master row.
// Without an object column the master rows pass through unchanged.
func (n *Normalizer) explode(master []cleanRow, hasObject bool) []finding.Finding {
	out := make([]finding.Finding, 0, len(master))
	if !hasObject {
		for _, r := range master {
			out = append(out, r.finding)
		}
		return out
	}

	for _, r := range master {
		for _, token := range n.objectTokens(r.finding.ObjectName) {
			row := r.finding
			row.ObjectName = token
			row.ObjectParent = n.opts.Parent(token, r.supplied)
			out = append(out, row)
		}
	}
	return out
}
