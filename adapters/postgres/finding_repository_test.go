package postgres

import (
	"context"
	"os"
	"testing"

	"hsedash/domain/finding"
	"hsedash/internal/migration"
	"hsedash/internal/normalize"
	"hsedash/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.RecordSource   = (*FindingRepository)(nil)
	_ ports.LocationSource = (*FindingRepository)(nil)
)

func TestRowFromRecordMapsExportHeaders(t *testing.T) {
	headers := []string{"kode_temuan", "Tanggal", "temuan.nama", "unused"}
	columns := normalize.ResolveColumns(headers, normalize.DefaultAliases())

	row := rowFromRecord(3, finding.RawRecord{
		"kode_temuan": "F1",
		"Tanggal":     "05/01/2024",
		"temuan.nama": "",
		"unused":      "x",
	}, columns)

	assert.Equal(t, int64(3), row.RowNo)
	assert.Equal(t, "F1", row.FindingID.String)
	assert.True(t, row.ReportDatetime.Valid)
	assert.False(t, row.ObjectName.Valid, "blank cells are stored as NULL")
	assert.False(t, row.Status.Valid, "absent columns are stored as NULL")

	rec := row.record()
	assert.Equal(t, "F1", rec[string(finding.ColID)])
	assert.Equal(t, "", rec[string(finding.ColObject)])
	assert.Len(t, tableHeaders(), len(finding.SourceColumns))
}

// TestRepositoryRoundTrip needs a scratch database; it is skipped unless
// HSE_TEST_DATABASE_URL is set.
func TestRepositoryRoundTrip(t *testing.T) {
	url := os.Getenv("HSE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("HSE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, migration.NewRunner().Run(ctx, db))

	repo := NewFindingRepository(db)
	n, err := repo.ReplaceFindings(ctx, &finding.RawDataset{
		Headers: []string{"kode_temuan", "temuan_status"},
		Rows: []finding.RawRecord{
			{"kode_temuan": "F2", "temuan_status": "Open"},
			{"kode_temuan": "F1", "temuan_status": "Closed"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	raw, err := repo.LoadRaw(ctx)
	require.NoError(t, err)
	require.Len(t, raw.Rows, 2)
	assert.Equal(t, "F2", raw.Rows[0][string(finding.ColID)], "import order is kept")

	require.NoError(t, repo.UpsertLocations(ctx, []finding.Location{{Name: "Jetty", Latitude: -5.6, Longitude: 105.4}}))
	locations, err := repo.LoadLocations(ctx)
	require.NoError(t, err)
	assert.Contains(t, locations, finding.Location{Name: "Jetty", Latitude: -5.6, Longitude: 105.4})
}
