package aggregate

import (
	"hsedash/domain/finding"
)

// TopLocations counts distinct findings per location, largest first.
func TopLocations(master []finding.Finding, n int) []Count {
	seen := make(map[string]map[string]struct{})
	c := newCounter()
	for _, f := range master {
		if isPlaceholder(f.Location) {
			continue
		}
		keys, ok := seen[f.Location]
		if !ok {
			keys = make(map[string]struct{})
			seen[f.Location] = keys
		}
		if _, dup := keys[f.Key()]; dup {
			continue
		}
		keys[f.Key()] = struct{}{}
		c.add(f.Location, 1)
	}
	return limit(c.sorted(), n)
}

// Marker is a finding placed on a map.
type Marker struct {
	FindingID string  `json:"finding_id"`
	Location  string  `json:"location_name"`
	Category  string  `json:"category"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoSummary is the map layer: one marker per located finding and their
// centroid.
type GeoSummary struct {
	Markers   []Marker `json:"markers"`
	CenterLat float64  `json:"center_lat"`
	CenterLon float64  `json:"center_lon"`
}

// Geo places every finding that has coordinates. The center is the mean
// position, or zero when nothing is located.
func Geo(master []finding.Finding) GeoSummary {
	g := GeoSummary{Markers: []Marker{}}
	var sumLat, sumLon float64
	for _, f := range master {
		if !f.HasCoordinates() {
			continue
		}
		g.Markers = append(g.Markers, Marker{
			FindingID: f.Key(),
			Location:  f.Location,
			Category:  f.Category,
			Latitude:  *f.Latitude,
			Longitude: *f.Longitude,
		})
		sumLat += *f.Latitude
		sumLon += *f.Longitude
	}
	if n := float64(len(g.Markers)); n > 0 {
		g.CenterLat = sumLat / n
		g.CenterLon = sumLon / n
	}
	return g
}
