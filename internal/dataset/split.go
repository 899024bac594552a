// Package dataset partitions the engineered series around the cutoff date.
package dataset

import (
	"time"

	apperrors "pricecast/internal/errors"
	"pricecast/pkg/contracts/domain"
)

// Split is the strict partition of the feature rows: Train holds months
// strictly before the cutoff, Test holds months in [cutoff, testEnd]
// inclusive, Later holds months after the window. Later rows never reach
// the model or the metrics; they exist only as forecast seed candidates.
type Split struct {
	Train []domain.FeatureRow
	Test  []domain.FeatureRow
	Later []domain.FeatureRow
}

// ByCutoff partitions month-ascending rows at the configured boundaries.
// Empty train or test subsets are degenerate model input and rejected.
func ByCutoff(rows []domain.FeatureRow, cutoff, testEnd time.Time) (Split, error) {
	var s Split
	for _, row := range rows {
		switch {
		case row.Month.Before(cutoff):
			s.Train = append(s.Train, row)
		case !row.Month.After(testEnd):
			s.Test = append(s.Test, row)
		default:
			s.Later = append(s.Later, row)
		}
	}

	if len(s.Train) == 0 {
		return Split{}, apperrors.NewModelError("no rows before cutoff "+cutoff.Format("2006-01-02"), nil)
	}
	if len(s.Test) == 0 {
		return Split{}, apperrors.NewModelError(
			"no rows in test window "+cutoff.Format("2006-01-02")+" .. "+testEnd.Format("2006-01-02"), nil)
	}
	return s, nil
}
