package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"date,asset_id,market,actual_generation_mwh",
		"2026-01-01,West Texas Solar 1,ERCOT,140.5",
		"2026-01-02, West Texas Solar 1 ,ERCOT,133.2",
	}, "\n")

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2026-01-01", rows[0]["date"])
	assert.Equal(t, "West Texas Solar 1", rows[0]["asset_id"])
	assert.Equal(t, "140.5", rows[0]["actual_generation_mwh"])
	// Values are trimmed.
	assert.Equal(t, "West Texas Solar 1", rows[1]["asset_id"])
}

func TestReadCSVSkipsBlankRows(t *testing.T) {
	input := "date,asset_id\n2026-01-01,A\n,\n2026-01-02,B\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0]["asset_id"])
	assert.Equal(t, "B", rows[1]["asset_id"])
}

func TestReadCSVRaggedRows(t *testing.T) {
	// Short rows simply omit the trailing columns.
	input := "date,asset_id,market\n2026-01-01,A\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0]["asset_id"])
	_, ok := rows[0]["market"]
	assert.False(t, ok)
}

func TestReadCSVEmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestReadCSVHeaderOnly(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("date,asset_id\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSVQuotedFields(t *testing.T) {
	input := "asset_id,note\n\"Solar, West\",\"line one\"\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Solar, West", rows[0]["asset_id"])
}

func TestReadCSVFileMissing(t *testing.T) {
	_, err := ReadCSVFile("/nonexistent/input.csv")
	require.Error(t, err)
}
