// Package finding holds the HSE finding data model shared by the loaders,
// the normalizer, the filter engine and the aggregators.
package finding

import (
	"sort"
	"strconv"
	"time"
)

// Column names a canonical field of an incident record.
type Column string

const (
	ColID             Column = "finding_id"
	ColReportedAt     Column = "report_datetime"
	ColCategory       Column = "category"
	ColStatus         Column = "status"
	ColLocation       Column = "location_name"
	ColObject         Column = "object_name"
	ColObjectParent   Column = "object_parent"
	ColCondition      Column = "condition_text"
	ColRecommendation Column = "recommendation_text"
	ColReporter       Column = "reporter_id"
	ColOrgUnit        Column = "organizational_unit"
	ColRole           Column = "role"
	ColTitle          Column = "title"
	ColOpenedAt       Column = "opened_at"
	ColClosedAt       Column = "closed_at"
	ColLatitude       Column = "latitude"
	ColLongitude      Column = "longitude"

	// Derived by the normalizer
	ColSLADeadline Column = "sla_deadline"
)

// SourceColumns lists every column a loader may supply, in display order.
var SourceColumns = []Column{
	ColID, ColReportedAt, ColCategory, ColStatus, ColLocation, ColObject,
	ColObjectParent, ColCondition, ColRecommendation, ColReporter, ColOrgUnit,
	ColRole, ColTitle, ColOpenedAt, ColClosedAt, ColLatitude, ColLongitude,
}

// Schema records which columns are present in a dataset. The zero value is
// an empty schema. Schemas are treated as values: With returns a copy.
type Schema struct {
	cols map[Column]bool
}

// NewSchema builds a schema from the given columns.
func NewSchema(cols ...Column) Schema {
	s := Schema{cols: make(map[Column]bool, len(cols))}
	for _, c := range cols {
		s.cols[c] = true
	}
	return s
}

// Has reports whether the column is present.
func (s Schema) Has(col Column) bool {
	return s.cols[col]
}

// Require reports whether every listed column is present. Operations use it
// to fail closed when a column they depend on is absent.
func (s Schema) Require(cols ...Column) bool {
	for _, c := range cols {
		if !s.cols[c] {
			return false
		}
	}
	return true
}

// With returns a copy of the schema with extra columns added.
func (s Schema) With(cols ...Column) Schema {
	out := Schema{cols: make(map[Column]bool, len(s.cols)+len(cols))}
	for c := range s.cols {
		out.cols[c] = true
	}
	for _, c := range cols {
		out.cols[c] = true
	}
	return out
}

// Columns returns the present columns sorted by name.
func (s Schema) Columns() []Column {
	out := make([]Column, 0, len(s.cols))
	for c := range s.cols {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of present columns.
func (s Schema) Len() int {
	return len(s.cols)
}

// Finding is one incident record. Every attribute that a source may omit or
// fail to parse is either a pointer (nil = missing) or a string where ""
// means missing.
type Finding struct {
	ID             string     `json:"finding_id"`
	ReportedAt     *time.Time `json:"report_datetime,omitempty"`
	SLADeadline    *time.Time `json:"sla_deadline,omitempty"`
	Category       string     `json:"category,omitempty"`
	Status         string     `json:"status,omitempty"`
	Location       string     `json:"location_name,omitempty"`
	ObjectName     string     `json:"object_name,omitempty"`
	ObjectParent   *string    `json:"object_parent,omitempty"`
	Condition      string     `json:"condition_text,omitempty"`
	Recommendation string     `json:"recommendation_text,omitempty"`
	Reporter       string     `json:"reporter_id,omitempty"`
	OrgUnit        string     `json:"organizational_unit,omitempty"`
	Role           string     `json:"role,omitempty"`
	Title          string     `json:"title,omitempty"`
	OpenedAt       *time.Time `json:"opened_at,omitempty"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`

	// Row is the zero-based position of the source row in the raw dataset.
	Row int `json:"row"`
}

// Key identifies the finding a row belongs to. It is the finding id, or the
// source row position when the dataset carries no id.
func (f Finding) Key() string {
	if f.ID != "" {
		return f.ID
	}
	return "row:" + strconv.Itoa(f.Row)
}

// Field returns the string form of a categorical column, "" when missing.
func (f Finding) Field(col Column) string {
	switch col {
	case ColID:
		return f.ID
	case ColCategory:
		return f.Category
	case ColStatus:
		return f.Status
	case ColLocation:
		return f.Location
	case ColObject:
		return f.ObjectName
	case ColObjectParent:
		if f.ObjectParent != nil {
			return *f.ObjectParent
		}
		return ""
	case ColCondition:
		return f.Condition
	case ColRecommendation:
		return f.Recommendation
	case ColReporter:
		return f.Reporter
	case ColOrgUnit:
		return f.OrgUnit
	case ColRole:
		return f.Role
	case ColTitle:
		return f.Title
	}
	return ""
}

// HasCoordinates reports whether both latitude and longitude are known.
func (f Finding) HasCoordinates() bool {
	return f.Latitude != nil && f.Longitude != nil
}

// Location is one entry of the site coordinate table.
type Location struct {
	Name      string  `json:"location_name" db:"location_name"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}
