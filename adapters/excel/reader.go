package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"hsedash/domain/finding"
	"hsedash/internal"
	"hsedash/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader reads findings exports and location tables from Excel or CSV
// files. It satisfies ports.RecordSource and ports.LocationSource.
type DataReader struct {
	filePath      string
	locationsPath string
	logger        *internal.Logger
}

// NewDataReader creates a reader for the findings file at filePath.
func NewDataReader(filePath string) *DataReader {
	return &DataReader{filePath: filePath, logger: internal.DefaultLogger}
}

// WithLocations sets the location table read by LoadLocations.
func (r *DataReader) WithLocations(path string) *DataReader {
	r.locationsPath = path
	return r
}

// WithLogger replaces the default logger.
func (r *DataReader) WithLogger(logger *internal.Logger) *DataReader {
	r.logger = logger
	return r
}

// LoadRaw implements ports.RecordSource.
func (r *DataReader) LoadRaw(ctx context.Context) (*finding.RawDataset, error) {
	return r.ReadData(ctx)
}

// ReadData reads the findings file into a raw dataset. A missing or
// unreadable file is an EMPTY_SOURCE error; a file with only a header row
// gives a dataset without rows.
func (r *DataReader) ReadData(ctx context.Context) (*finding.RawDataset, error) {
	rows, err := r.readTable(ctx, r.filePath)
	if err != nil {
		return nil, err
	}
	return r.processRows(r.filePath, rows), nil
}

// LoadLocations implements ports.LocationSource. Without a configured table
// it returns no locations.
func (r *DataReader) LoadLocations(ctx context.Context) ([]finding.Location, error) {
	if r.locationsPath == "" {
		return nil, nil
	}
	return r.ReadLocations(ctx, r.locationsPath)
}

// ReadLocations reads a coordinate table with a name column (location_name,
// nama_lokasi or tempat) and lat/lon columns. Rows with unparseable
// coordinates are skipped.
func (r *DataReader) ReadLocations(ctx context.Context, path string) ([]finding.Location, error) {
	rows, err := r.readTable(ctx, path)
	if err != nil {
		return nil, err
	}
	data := r.processRows(path, rows)

	nameCol := pickHeader(data.Headers, "location_name", "nama_lokasi", "tempat")
	latCol := pickHeader(data.Headers, "lat", "latitude")
	lonCol := pickHeader(data.Headers, "lon", "lng", "longitude")
	if nameCol == "" || latCol == "" || lonCol == "" {
		return nil, errors.InvalidInput(fmt.Sprintf("location table %s needs name, lat and lon columns", path))
	}

	locations := make([]finding.Location, 0, len(data.Rows))
	skipped := 0
	for _, row := range data.Rows {
		lat, errLat := strconv.ParseFloat(strings.ReplaceAll(row[latCol], ",", "."), 64)
		lon, errLon := strconv.ParseFloat(strings.ReplaceAll(row[lonCol], ",", "."), 64)
		if row[nameCol] == "" || errLat != nil || errLon != nil {
			skipped++
			continue
		}
		locations = append(locations, finding.Location{Name: row[nameCol], Latitude: lat, Longitude: lon})
	}

	r.logger.Info("[DataReader] %d locations read from %s (%d skipped)", len(locations), path, skipped)
	return locations, nil
}

func (r *DataReader) readTable(ctx context.Context, path string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.EmptySource(path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return r.readCSV(path)
	case ".xlsx", ".xlsm":
		return r.readExcel(path)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", filepath.Ext(path)))
	}
}

// readExcel reads the first sheet of a workbook. Cells are read raw so date
// cells arrive as Excel serials rather than locale display text.
func (r *DataReader) readExcel(path string) ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.EmptySource(path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.EmptySource(path, fmt.Errorf("workbook has no sheets"))
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.EmptySource(path, fmt.Errorf("failed to read %s: %w", sheets[0], err))
	}

	r.logger.Debug("[DataReader] sheet %s read in %.2fms (%d rows)",
		sheets[0], float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *DataReader) readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.EmptySource(path, err)
	}
	defer file.Close()

	startTime := time.Now()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.EmptySource(path, fmt.Errorf("failed to read CSV file: %w", err))
		}
		rows = append(rows, record)
	}

	r.logger.Debug("[DataReader] CSV file read in %.2fms (%d rows)",
		float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// processRows turns the header row and data rows into records. Cells beyond
// the header are dropped, missing trailing cells read as "", and fully blank
// rows are skipped.
func (r *DataReader) processRows(source string, rows [][]string) *finding.RawDataset {
	data := &finding.RawDataset{Source: source, Rows: []finding.RawRecord{}}
	if len(rows) == 0 {
		data.Headers = []string{}
		return data
	}

	headerRow := rows[0]
	data.Headers = make([]string, len(headerRow))
	for i, header := range headerRow {
		data.Headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	for _, row := range rows[1:] {
		record := make(finding.RawRecord, len(data.Headers))
		blank := true
		for j, header := range data.Headers {
			var cell string
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			if cell != "" {
				blank = false
			}
			record[header] = cell
		}
		if !blank {
			data.Rows = append(data.Rows, record)
		}
	}

	r.logger.Info("[DataReader] %s processed (%d columns, %d rows)", source, len(data.Headers), len(data.Rows))
	return data
}

func pickHeader(headers []string, candidates ...string) string {
	for _, c := range candidates {
		for _, h := range headers {
			if strings.EqualFold(h, c) {
				return h
			}
		}
	}
	return ""
}
