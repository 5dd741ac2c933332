// Package testkit provides findings fixtures for tests: hand-written export
// tables, in-memory sources and a seeded synthetic export generator.
package testkit

import (
	"context"

	"hsedash/domain/finding"
)

// ExportHeaders are the column headers of the HSE findings export.
var ExportHeaders = []string{
	"kode_temuan", "tanggal", "temuan_kategori", "temuan_status", "nama_lokasi",
	"temuan.nama", "creator_name", "team_role", "temuan.kondisi.lemma",
}

// Dataset builds a raw dataset from positional rows. Short rows are padded
// with blanks and extra cells are dropped.
func Dataset(headers []string, rows ...[]string) *finding.RawDataset {
	data := &finding.RawDataset{
		Source:  "testkit",
		Headers: append([]string{}, headers...),
		Rows:    make([]finding.RawRecord, 0, len(rows)),
	}
	for _, row := range rows {
		rec := make(finding.RawRecord, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		data.Rows = append(data.Rows, rec)
	}
	return data
}

// Export builds a dataset with ExportHeaders.
func Export(rows ...[]string) *finding.RawDataset {
	return Dataset(ExportHeaders, rows...)
}

// Source is an in-memory ports.RecordSource and ports.LocationSource.
type Source struct {
	Data      *finding.RawDataset
	Err       error
	Sites     []finding.Location
	SitesErr  error
	LoadCount int
}

// LoadRaw returns Data or Err.
func (s *Source) LoadRaw(context.Context) (*finding.RawDataset, error) {
	s.LoadCount++
	return s.Data, s.Err
}

// LoadLocations returns Sites or SitesErr.
func (s *Source) LoadLocations(context.Context) ([]finding.Location, error) {
	return s.Sites, s.SitesErr
}
