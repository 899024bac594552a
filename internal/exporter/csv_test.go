package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pricecast/internal/errors"
	"pricecast/pkg/contracts/domain"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 { return &v }

func sampleRows() []domain.ForecastRow {
	return []domain.ForecastRow{
		{
			Month: month(2024, time.May), Actual: ptr(14.0), Predicted: 13.8,
			Lag1: 13, Lag2: 12, Lag3: 11, MonthNum: 5, Year: 2024,
		},
		{
			Month: month(2024, time.June), Actual: ptr(15.0), Predicted: 14.9,
			Lag1: 14, Lag2: 13, Lag3: 12, MonthNum: 6, Year: 2024,
		},
		{
			Month: month(2024, time.July), Predicted: 15.2, Future: true,
			Lag1: 15, Lag2: 14, Lag3: 13, MonthNum: 7, Year: 2024,
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimPrefix(string(data), "\xef\xbb\xbf")
	records, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWrite_WithFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.csv")

	err := NewCSVWriter(nil).Write(path, sampleRows(), WriteOptions{WithFeatures: true, BOMPrefix: true})
	require.NoError(t, err)

	records := readCSV(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"month", "actual", "predicted", "future", "lag_1", "lag_2", "lag_3", "month_num", "year"}, records[0])

	assert.Equal(t, "2024-05", records[1][0])
	assert.Equal(t, "14.000000", records[1][1])
	assert.Equal(t, "13.800000", records[1][2])
	assert.Equal(t, "false", records[1][3])
	assert.Equal(t, "13.000000", records[1][4])

	// Future row: empty actual by construction.
	assert.Equal(t, "2024-07", records[3][0])
	assert.Equal(t, "", records[3][1])
	assert.Equal(t, "true", records[3][3])
}

func TestWrite_WithoutFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.csv")

	err := NewCSVWriter(nil).Write(path, sampleRows(), WriteOptions{})
	require.NoError(t, err)

	records := readCSV(t, path)
	assert.Equal(t, []string{"month", "actual", "predicted", "future"}, records[0])
	for _, rec := range records {
		assert.Len(t, rec, 4)
	}
}

func TestWrite_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.csv")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0644))

	err := NewCSVWriter(nil).Write(path, sampleRows(), WriteOptions{})
	require.NoError(t, err)

	records := readCSV(t, path)
	require.Len(t, records, 4)
}

func TestWrite_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reports", "forecast.csv")

	err := NewCSVWriter(nil).Write(path, sampleRows(), WriteOptions{})
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestWrite_UnwritableDestination(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0755) })

	path := filepath.Join(dir, "forecast.csv")
	err := NewCSVWriter(nil).Write(path, sampleRows(), WriteOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsOutput(err))

	// No partial file may be left behind.
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestWrite_NoTempFileRemains(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forecast.csv")

	require.NoError(t, NewCSVWriter(nil).Write(path, sampleRows(), WriteOptions{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "forecast.csv", entries[0].Name())
}
