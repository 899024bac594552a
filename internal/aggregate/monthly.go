// Package aggregate buckets daily observations into calendar-month means.
package aggregate

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	apperrors "pricecast/internal/errors"
	"pricecast/pkg/contracts/domain"
)

// Monthly groups daily records by calendar month and returns one aggregate
// per month that has at least one finite observation, sorted by month
// ascending. Non-finite values are excluded from the mean; a month whose
// observations are all non-finite produces no row at all.
func Monthly(records []domain.RawRecord) []domain.MonthlyAggregate {
	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[time.Time]*bucket)

	for _, r := range records {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			continue
		}
		month := domain.TruncateToMonth(r.Date)
		b := buckets[month]
		if b == nil {
			b = &bucket{}
			buckets[month] = b
		}
		b.sum += r.Value
		b.count++
	}

	aggs := make([]domain.MonthlyAggregate, 0, len(buckets))
	for month, b := range buckets {
		mean := b.sum / float64(b.count)
		if math.IsNaN(mean) || math.IsInf(mean, 0) {
			continue
		}
		aggs = append(aggs, domain.MonthlyAggregate{
			Month: month,
			Mean:  mean,
			Count: b.count,
		})
	}

	sort.Slice(aggs, func(i, j int) bool { return aggs[i].Month.Before(aggs[j].Month) })
	return aggs
}

// CheckGaps scans a month-ascending aggregate series for missing calendar
// months. Lag features are positional, so a gap silently shifts every
// subsequent lag; the pipeline therefore refuses (policy "fail") or at
// minimum reports (policy "warn") before features are built.
func CheckGaps(aggs []domain.MonthlyAggregate, policy string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	var missing []string
	for i := 1; i < len(aggs); i++ {
		span := domain.MonthsBetween(aggs[i-1].Month, aggs[i].Month)
		for k := 1; k < span; k++ {
			missing = append(missing, domain.MonthKey(domain.AddMonths(aggs[i-1].Month, k)))
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if policy == "warn" {
		logger.Warn("Aggregated series has calendar-month gaps; lag features will be misaligned",
			slog.Int("gap_count", len(missing)),
			slog.String("months", strings.Join(missing, ", ")))
		return nil
	}
	return apperrors.NewDataQualityError(
		"aggregated series has calendar-month gaps: "+strings.Join(missing, ", "), nil)
}
