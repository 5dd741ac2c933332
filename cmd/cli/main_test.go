package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "findings.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"kode_temuan,tanggal,temuan_kategori,temuan_status,nama_lokasi,temuan.nama\n"+
			"F1,01/03/2024,Near Miss,Open,Jetty,Pipe\n"+
			"F2,15/04/2024,Unsafe Act,Closed,Boiler,Cable\n"), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummaryMarkdown(t *testing.T) {
	out, err := run(t, "summary", "--file", writeExport(t), "--from", "2024-03-01", "--to", "2024-03-31")
	require.NoError(t, err)
	assert.Contains(t, out, "| Total findings | 1 |")
	assert.Contains(t, out, "Filtered by 01 Mar 2024 to 31 Mar 2024.")
}

func TestSummaryJSON(t *testing.T) {
	out, err := run(t, "summary", "--file", writeExport(t), "--format", "json", "--bucket", "month")
	require.NoError(t, err)

	var d map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "month", d["trend_bucket"])
	assert.Len(t, d["trend"], 2)
}

func TestSummaryRejectsBadInput(t *testing.T) {
	file := writeExport(t)

	_, err := run(t, "summary", "--file", file, "--bucket", "year")
	assert.Error(t, err)

	_, err = run(t, "summary", "--file", file, "--from", "March")
	assert.Error(t, err)

	_, err = run(t, "summary", "--file", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestOptionsAndFindings(t *testing.T) {
	file := writeExport(t)

	out, err := run(t, "options", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, `"Boiler"`)

	out, err = run(t, "findings", "--file", file, "--status", "Closed")
	require.NoError(t, err)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "F2", rows[0]["finding_id"])
}
