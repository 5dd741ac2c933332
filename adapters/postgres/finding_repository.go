package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"hsedash/domain/finding"
	"hsedash/internal/errors"
	"hsedash/internal/normalize"

	"github.com/jmoiron/sqlx"
)

// FindingRepository stores findings exports in hse_findings and the site
// coordinate table in hse_locations. Values are kept as exported text; the
// normalizer does all parsing.
type FindingRepository struct {
	db      *sqlx.DB
	aliases map[finding.Column][]string
}

// NewFindingRepository creates a repository that maps imported headers with
// the default column aliases.
func NewFindingRepository(db *sqlx.DB) *FindingRepository {
	return &FindingRepository{db: db, aliases: normalize.DefaultAliases()}
}

// findingRow mirrors one hse_findings row.
type findingRow struct {
	RowNo          int64          `db:"row_no"`
	FindingID      sql.NullString `db:"finding_id"`
	ReportDatetime sql.NullString `db:"report_datetime"`
	Category       sql.NullString `db:"category"`
	Status         sql.NullString `db:"status"`
	LocationName   sql.NullString `db:"location_name"`
	ObjectName     sql.NullString `db:"object_name"`
	ObjectParent   sql.NullString `db:"object_parent"`
	ConditionText  sql.NullString `db:"condition_text"`
	Recommendation sql.NullString `db:"recommendation_text"`
	ReporterID     sql.NullString `db:"reporter_id"`
	OrgUnit        sql.NullString `db:"organizational_unit"`
	Role           sql.NullString `db:"role"`
	Title          sql.NullString `db:"title"`
	OpenedAt       sql.NullString `db:"opened_at"`
	ClosedAt       sql.NullString `db:"closed_at"`
	Latitude       sql.NullString `db:"latitude"`
	Longitude      sql.NullString `db:"longitude"`
}

// record returns the row keyed by canonical column name. NULL reads as "".
func (r findingRow) record() finding.RawRecord {
	return finding.RawRecord{
		string(finding.ColID):             r.FindingID.String,
		string(finding.ColReportedAt):     r.ReportDatetime.String,
		string(finding.ColCategory):       r.Category.String,
		string(finding.ColStatus):         r.Status.String,
		string(finding.ColLocation):       r.LocationName.String,
		string(finding.ColObject):         r.ObjectName.String,
		string(finding.ColObjectParent):   r.ObjectParent.String,
		string(finding.ColCondition):      r.ConditionText.String,
		string(finding.ColRecommendation): r.Recommendation.String,
		string(finding.ColReporter):       r.ReporterID.String,
		string(finding.ColOrgUnit):        r.OrgUnit.String,
		string(finding.ColRole):           r.Role.String,
		string(finding.ColTitle):          r.Title.String,
		string(finding.ColOpenedAt):       r.OpenedAt.String,
		string(finding.ColClosedAt):       r.ClosedAt.String,
		string(finding.ColLatitude):       r.Latitude.String,
		string(finding.ColLongitude):      r.Longitude.String,
	}
}

// tableHeaders lists the canonical columns in hse_findings column order.
func tableHeaders() []string {
	headers := make([]string, len(finding.SourceColumns))
	for i, col := range finding.SourceColumns {
		headers[i] = string(col)
	}
	return headers
}

// LoadRaw implements ports.RecordSource. Rows come back in import order.
func (r *FindingRepository) LoadRaw(ctx context.Context) (*finding.RawDataset, error) {
	var rows []findingRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT row_no, finding_id, report_datetime, category, status, location_name,
		       object_name, object_parent, condition_text, recommendation_text,
		       reporter_id, organizational_unit, role, title, opened_at, closed_at,
		       latitude, longitude
		FROM hse_findings
		ORDER BY row_no
	`)
	if err != nil {
		return nil, errors.EmptySource("hse_findings", errors.DatabaseError("failed to load findings", err))
	}

	data := &finding.RawDataset{
		Source:  "postgres:hse_findings",
		Headers: tableHeaders(),
		Rows:    make([]finding.RawRecord, len(rows)),
	}
	for i, row := range rows {
		data.Rows[i] = row.record()
	}
	return data, nil
}

// LoadLocations implements ports.LocationSource.
func (r *FindingRepository) LoadLocations(ctx context.Context) ([]finding.Location, error) {
	var locations []finding.Location
	err := r.db.SelectContext(ctx, &locations, `
		SELECT location_name, latitude, longitude
		FROM hse_locations
		ORDER BY location_name
	`)
	if err != nil {
		return nil, errors.DatabaseError("failed to load locations", err)
	}
	return locations, nil
}

// ReplaceFindings swaps the stored findings for the rows of raw in one
// transaction. Headers are matched to table columns through the aliases;
// unmatched headers are not stored. It returns the number of rows written.
func (r *FindingRepository) ReplaceFindings(ctx context.Context, raw *finding.RawDataset) (int, error) {
	if raw == nil {
		return 0, errors.InvalidInput("no dataset to import")
	}
	columns := normalize.ResolveColumns(raw.Headers, r.aliases)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM hse_findings`); err != nil {
		return 0, errors.DatabaseError("failed to clear findings", err)
	}

	for i, rec := range raw.Rows {
		row := rowFromRecord(int64(i), rec, columns)
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO hse_findings (
				row_no, finding_id, report_datetime, category, status, location_name,
				object_name, object_parent, condition_text, recommendation_text,
				reporter_id, organizational_unit, role, title, opened_at, closed_at,
				latitude, longitude
			) VALUES (
				:row_no, :finding_id, :report_datetime, :category, :status, :location_name,
				:object_name, :object_parent, :condition_text, :recommendation_text,
				:reporter_id, :organizational_unit, :role, :title, :opened_at, :closed_at,
				:latitude, :longitude
			)
		`, row); err != nil {
			return 0, errors.DatabaseError(fmt.Sprintf("failed to insert row %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.DatabaseError("failed to commit findings", err)
	}
	return len(raw.Rows), nil
}

// UpsertLocations inserts or updates site coordinates by name.
func (r *FindingRepository) UpsertLocations(ctx context.Context, locations []finding.Location) error {
	for _, loc := range locations {
		_, err := r.db.NamedExecContext(ctx, `
			INSERT INTO hse_locations (location_name, latitude, longitude)
			VALUES (:location_name, :latitude, :longitude)
			ON CONFLICT (location_name) DO UPDATE
			SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude
		`, loc)
		if err != nil {
			return errors.DatabaseError("failed to upsert location "+loc.Name, err)
		}
	}
	return nil
}

func rowFromRecord(rowNo int64, rec finding.RawRecord, columns map[finding.Column]string) findingRow {
	get := func(col finding.Column) sql.NullString {
		header, ok := columns[col]
		if !ok {
			return sql.NullString{}
		}
		v, ok := rec[header]
		return sql.NullString{String: v, Valid: ok && v != ""}
	}
	return findingRow{
		RowNo:          rowNo,
		FindingID:      get(finding.ColID),
		ReportDatetime: get(finding.ColReportedAt),
		Category:       get(finding.ColCategory),
		Status:         get(finding.ColStatus),
		LocationName:   get(finding.ColLocation),
		ObjectName:     get(finding.ColObject),
		ObjectParent:   get(finding.ColObjectParent),
		ConditionText:  get(finding.ColCondition),
		Recommendation: get(finding.ColRecommendation),
		ReporterID:     get(finding.ColReporter),
		OrgUnit:        get(finding.ColOrgUnit),
		Role:           get(finding.ColRole),
		Title:          get(finding.ColTitle),
		OpenedAt:       get(finding.ColOpenedAt),
		ClosedAt:       get(finding.ColClosedAt),
		Latitude:       get(finding.ColLatitude),
		Longitude:      get(finding.ColLongitude),
	}
}
