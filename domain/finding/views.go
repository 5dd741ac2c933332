package finding

import (
	"github.com/google/uuid"
)

// Diagnostic records a recovered problem found while normalizing: a missing
// column, values that failed to parse, or an empty source.
type Diagnostic struct {
	Code    string `json:"code"`
	Column  Column `json:"column,omitempty"`
	Count   int    `json:"count,omitempty"`
	Message string `json:"message"`
}

// Views is the pair of canonical tables produced by the normalizer and
// narrowed by the filter engine.
//
// Master holds one row per finding. Exploded holds one row per object token,
// each carrying its parent's id as back-reference and a copy of the parent's
// other attributes. Views are never modified after construction; every
// transformation returns a new value.
type Views struct {
	SnapshotID  uuid.UUID    `json:"snapshot_id"`
	Fingerprint string       `json:"fingerprint"`
	Schema      Schema       `json:"-"`
	Master      []Finding    `json:"master"`
	Exploded    []Finding    `json:"exploded"`
	SourceEmpty bool         `json:"source_empty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// EmptyViews returns views for a source that produced no data.
func EmptyViews(schema Schema, diagnostics ...Diagnostic) Views {
	return Views{
		SnapshotID:  uuid.New(),
		Schema:      schema,
		Master:      []Finding{},
		Exploded:    []Finding{},
		SourceEmpty: true,
		Diagnostics: diagnostics,
	}
}

// IsEmptySource reports whether there was no data to begin with.
func (v Views) IsEmptySource() bool {
	return v.SourceEmpty
}

// IsFilteredEmpty reports whether data existed but nothing is left in master.
func (v Views) IsFilteredEmpty() bool {
	return !v.SourceEmpty && len(v.Master) == 0
}

// MasterKeys returns the set of finding keys present in master.
func (v Views) MasterKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(v.Master))
	for _, f := range v.Master {
		keys[f.Key()] = struct{}{}
	}
	return keys
}
