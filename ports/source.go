package ports

import (
	"context"

	"hsedash/domain/finding"
)

// RecordSource loads the raw findings table. Implementations return an
// EMPTY_SOURCE error when the source cannot be read at all; a readable
// source without rows yields an empty dataset and no error.
type RecordSource interface {
	LoadRaw(ctx context.Context) (*finding.RawDataset, error)
}

// LocationSource loads the site coordinate table used to place findings on
// a map.
type LocationSource interface {
	LoadLocations(ctx context.Context) ([]finding.Location, error)
}
