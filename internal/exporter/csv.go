// Package exporter writes the forecast table to a delimited file.
package exporter

import (
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	apperrors "pricecast/internal/errors"
	"pricecast/pkg/contracts/domain"
)

// CSVWriter exports forecast rows. The write is atomic: rows go to a temp
// file in the destination directory which is renamed over the target only
// after a successful flush, so a failed run never leaves a partial file.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures the export.
type WriteOptions struct {
	// WithFeatures adds the lag and calendar columns (lag feature mode).
	WithFeatures bool
	// BOMPrefix adds a UTF-8 BOM so Excel opens the file correctly.
	BOMPrefix bool
}

// Write exports one row per month, historical rows first, then future
// rows. Future rows have an empty actual column by construction.
func (w *CSVWriter) Write(path string, rows []domain.ForecastRow, opts WriteOptions) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewOutputError("failed to create output directory "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".forecast-*.csv")
	if err != nil {
		return apperrors.NewOutputError("failed to create temp file in "+dir, err)
	}
	tmpName := tmp.Name()
	// On any failure below, remove the temp file so nothing partial stays.
	fail := func(msg string, cause error) error {
		tmp.Close()
		_ = os.Remove(tmpName)
		return apperrors.NewOutputError(msg, cause)
	}

	if opts.BOMPrefix {
		if _, err := tmp.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fail("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header(opts.WithFeatures)); err != nil {
		return fail("failed to write header", err)
	}
	for i, row := range rows {
		if err := writer.Write(record(row, opts.WithFeatures)); err != nil {
			return fail("failed to write record "+strconv.Itoa(i), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fail("failed to flush csv", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("failed to sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("failed to close temp file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.NewOutputError("failed to move export into place at "+path, err)
	}

	w.logger.Info("Wrote forecast export",
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return nil
}

func header(withFeatures bool) []string {
	h := []string{"month", "actual", "predicted", "future"}
	if withFeatures {
		h = append(h, "lag_1", "lag_2", "lag_3", "month_num", "year")
	}
	return h
}

func record(row domain.ForecastRow, withFeatures bool) []string {
	actual := ""
	if row.Actual != nil {
		actual = formatFloat(*row.Actual)
	}
	rec := []string{
		domain.MonthKey(row.Month),
		actual,
		formatFloat(row.Predicted),
		strconv.FormatBool(row.Future),
	}
	if withFeatures {
		rec = append(rec,
			formatFloat(row.Lag1),
			formatFloat(row.Lag2),
			formatFloat(row.Lag3),
			strconv.Itoa(row.MonthNum),
			strconv.Itoa(row.Year),
		)
	}
	return rec
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
