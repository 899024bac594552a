// Package loader reads daily price observations from an Excel workbook.
package loader

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "pricecast/internal/errors"
	"pricecast/pkg/contracts/domain"
)

// dateLayouts are tried in order when a date cell is not an Excel serial.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
	"2-Jan-06",
	"02-Jan-2006",
}

// Options selects the sheet and columns to read. An empty Sheet enables
// header-based discovery across all sheets.
type Options struct {
	Sheet       string
	DateColumn  string
	ValueColumn string
}

// Loader reads RawRecords from Excel workbooks.
type Loader struct {
	logger *slog.Logger
}

// New creates a Loader.
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads the workbook at path and returns one RawRecord per data row,
// in file order. Rows whose date cannot be parsed are skipped with a count
// reported at the end; rows whose value is empty or non-numeric are kept
// with a NaN value so the aggregator can exclude them from the monthly mean.
func (l *Loader) Load(path string, opts Options) ([]domain.RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewInputError("failed to open workbook "+path, err)
	}
	defer f.Close()

	sheet, rows, err := l.resolveSheet(f, opts)
	if err != nil {
		return nil, err
	}

	headerIdx, dateIdx, valueIdx := locateColumns(rows, opts.DateColumn, opts.ValueColumn)
	if dateIdx < 0 || valueIdx < 0 {
		return nil, apperrors.NewInputError(
			"sheet "+sheet+" is missing required columns "+opts.DateColumn+" and/or "+opts.ValueColumn, nil)
	}

	var (
		records      []domain.RawRecord
		badDates     int
		missingVals  int
		negativeVals int
	)
	for _, row := range rows[headerIdx+1:] {
		if dateIdx >= len(row) || strings.TrimSpace(row[dateIdx]) == "" {
			continue
		}
		date, ok := parseDate(row[dateIdx])
		if !ok {
			badDates++
			continue
		}

		value := math.NaN()
		if valueIdx < len(row) {
			if v, ok := parseValue(row[valueIdx]); ok {
				value = v
			}
		}
		if math.IsNaN(value) {
			missingVals++
		} else if value < 0 {
			negativeVals++
		}

		records = append(records, domain.RawRecord{Date: date, Value: value})
	}

	if badDates > 0 {
		l.logger.Warn("Skipped rows with unparseable dates",
			slog.String("sheet", sheet),
			slog.Int("count", badDates))
	}
	if negativeVals > 0 {
		// Negative prices are suspicious but not provably wrong for every
		// commodity, so they are reported rather than rejected.
		l.logger.Warn("Input contains negative values",
			slog.String("column", opts.ValueColumn),
			slog.Int("count", negativeVals))
	}
	if len(records) == 0 {
		return nil, apperrors.NewInputError("sheet "+sheet+" contains no data rows", nil)
	}

	l.logger.Info("Loaded daily records",
		slog.String("file", path),
		slog.String("sheet", sheet),
		slog.Int("records", len(records)),
		slog.Int("missing_values", missingVals))

	return records, nil
}

// resolveSheet picks the sheet to read. With an explicit name it must
// exist; otherwise the first sheet whose header row contains both required
// columns wins.
func (l *Loader) resolveSheet(f *excelize.File, opts Options) (string, [][]string, error) {
	if opts.Sheet != "" {
		rows, err := f.GetRows(opts.Sheet)
		if err != nil {
			return "", nil, apperrors.NewInputError("sheet "+opts.Sheet+" not found", err)
		}
		return opts.Sheet, rows, nil
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if h, d, v := locateColumns(rows, opts.DateColumn, opts.ValueColumn); h >= 0 && d >= 0 && v >= 0 {
			l.logger.Debug("Discovered data sheet", slog.String("sheet", name))
			return name, rows, nil
		}
	}
	return "", nil, apperrors.NewInputError(
		"no sheet contains columns "+opts.DateColumn+" and "+opts.ValueColumn, nil)
}

// locateColumns scans the first few rows for a header containing both
// column names and returns (headerRow, dateIdx, valueIdx), or negatives.
func locateColumns(rows [][]string, dateCol, valueCol string) (int, int, int) {
	limit := len(rows)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		dateIdx, valueIdx := -1, -1
		for j, cell := range rows[i] {
			switch {
			case strings.EqualFold(strings.TrimSpace(cell), dateCol):
				dateIdx = j
			case strings.EqualFold(strings.TrimSpace(cell), valueCol):
				valueIdx = j
			}
		}
		if dateIdx >= 0 && valueIdx >= 0 {
			return i, dateIdx, valueIdx
		}
	}
	return -1, -1, -1
}

// parseDate accepts either an Excel serial number or a formatted date string.
func parseDate(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.UTC(), true
		}
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseValue parses a numeric cell, tolerating thousands separators.
func parseValue(cell string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
