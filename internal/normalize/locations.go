package normalize

import (
	"strings"

	"hsedash/domain/finding"
)

// JoinLocations fills missing coordinates from a site table keyed by
// location name. Names match after trimming and lowercasing. Rows that
// already carry coordinates keep them. The input views are not modified.
func JoinLocations(views finding.Views, locations []finding.Location) finding.Views {
	if len(locations) == 0 || !views.Schema.Has(finding.ColLocation) {
		return views
	}

	table := make(map[string]finding.Location, len(locations))
	for _, loc := range locations {
		key := joinKey(loc.Name)
		if key == "" {
			continue
		}
		if _, exists := table[key]; !exists {
			table[key] = loc
		}
	}

	matched := false
	fill := func(rows []finding.Finding) []finding.Finding {
		out := make([]finding.Finding, len(rows))
		for i, f := range rows {
			if !f.HasCoordinates() {
				if loc, ok := table[joinKey(f.Location)]; ok {
					lat, lon := loc.Latitude, loc.Longitude
					f.Latitude = &lat
					f.Longitude = &lon
					matched = true
				}
			}
			out[i] = f
		}
		return out
	}

	joined := views
	joined.Master = fill(views.Master)
	joined.Exploded = fill(views.Exploded)
	if matched {
		joined.Schema = views.Schema.With(finding.ColLatitude, finding.ColLongitude)
	}
	return joined
}

func joinKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
