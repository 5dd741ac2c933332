package finding

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// RawRecord is one source row keyed by header name. Cells hold the text the
// loader read; a header absent from the map is an empty cell.
type RawRecord map[string]string

// RawDataset is a loaded table before normalization.
type RawDataset struct {
	Source  string      `json:"source"`
	Headers []string    `json:"headers"`
	Rows    []RawRecord `json:"rows"`
}

// IsEmpty reports whether the dataset has no data rows.
func (d *RawDataset) IsEmpty() bool {
	return d == nil || len(d.Rows) == 0
}

// Fingerprint returns a stable SHA-256 over headers and cell values. Two
// datasets with identical content share a fingerprint regardless of source.
func (d *RawDataset) Fingerprint() string {
	if d == nil {
		return ""
	}

	h := sha256.New()
	headers := append([]string(nil), d.Headers...)
	sort.Strings(headers)
	for _, header := range headers {
		h.Write([]byte(header))
		h.Write([]byte{0x1f})
	}
	h.Write([]byte{0x1e})

	for _, row := range d.Rows {
		for _, header := range headers {
			h.Write([]byte(row[header]))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}

	return hex.EncodeToString(h.Sum(nil))
}
