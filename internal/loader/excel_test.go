package loader

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "pricecast/internal/errors"
)

// writeWorkbook builds a minimal workbook with a Date / Block Average sheet.
func writeWorkbook(t *testing.T, sheet string, cells [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range cells {
		for j, cell := range row {
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, axis, cell))
		}
	}

	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func defaultOptions() Options {
	return Options{DateColumn: "Date", ValueColumn: "Block Average"}
}

func TestLoad_BasicRecords(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"Date", "Block Average"},
		{"2023-01-02", 101.5},
		{"2023-01-03", 102.25},
		{"2023-02-01", 98.0},
	})

	records, err := New(nil).Load(path, defaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.InDelta(t, 101.5, records[0].Value, 1e-9)
	assert.Equal(t, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), records[2].Date)
}

func TestLoad_MissingValuesBecomeNaN(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"Date", "Block Average"},
		{"2023-01-02", 101.5},
		{"2023-01-03", ""},
		{"2023-01-04", "n/a"},
	})

	records, err := New(nil).Load(path, defaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.False(t, math.IsNaN(records[0].Value))
	assert.True(t, math.IsNaN(records[1].Value))
	assert.True(t, math.IsNaN(records[2].Value))
}

func TestLoad_ThousandsSeparators(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"Date", "Block Average"},
		{"2023-01-02", "1,234.5"},
	})

	records, err := New(nil).Load(path, defaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 1234.5, records[0].Value, 1e-9)
}

func TestLoad_SheetDiscovery(t *testing.T) {
	path := writeWorkbook(t, "Daily Prices", [][]any{
		{"commodity report"},
		{"Date", "Block Average"},
		{"2023-01-02", 101.5},
	})

	records, err := New(nil).Load(path, defaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestLoad_ExplicitSheetNotFound(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"Date", "Block Average"},
		{"2023-01-02", 101.5},
	})

	opts := defaultOptions()
	opts.Sheet = "Nope"
	_, err := New(nil).Load(path, opts)
	require.Error(t, err)
	assert.True(t, apperrors.IsInput(err))
}

func TestLoad_MissingColumns(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"Day", "Price"},
		{"2023-01-02", 101.5},
	})

	_, err := New(nil).Load(path, defaultOptions())
	require.Error(t, err)
	assert.True(t, apperrors.IsInput(err))
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := New(nil).Load(filepath.Join(t.TempDir(), "absent.xlsx"), defaultOptions())
	require.Error(t, err)
	assert.True(t, apperrors.IsInput(err))
}

func TestLoad_SkipsUnparseableDates(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"Date", "Block Average"},
		{"not a date", 1.0},
		{"2023-01-02", 101.5},
	})

	records, err := New(nil).Load(path, defaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), records[0].Date)
}

func TestParseDate_Formats(t *testing.T) {
	tests := []struct {
		cell     string
		expected time.Time
		ok       bool
	}{
		{"2023-04-15", time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC), true},
		{"4/15/2023", time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC), true},
		{"15-Apr-23", time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"garbage", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.cell), func(t *testing.T) {
			got, ok := parseDate(tt.cell)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}
