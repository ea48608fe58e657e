package weighing

import (
	"registracion/internal/core/apperror"
	"registracion/internal/core/types"
)

// ValidateBundles checks every bundle against the rules of the registration
// kind. The first failing bundle wins; within a bundle the checks run in the
// order bundle number, quality, rolls, weight.
func ValidateBundles(bundles []Bundle, rules Rules) error {
	for i, b := range bundles {
		if rules.RequiresBundleNumber && b.Number <= 0 {
			return apperror.NewValidationCode(apperror.CodeMissingBundleNumber, "Bundle number is required").
				WithDetail("index", i)
		}
		if !rules.AllowsQuality && b.Quality {
			return apperror.NewValidationCode(apperror.CodeQualityNotAllowed, "Quality is not allowed for this registration kind").
				WithDetail("index", i).
				WithDetail("atado", b.Number)
		}
		if b.Rolls <= 0 {
			return apperror.NewValidationCode(apperror.CodeMissingRollCount, "Roll count is required").
				WithDetail("index", i).
				WithDetail("atado", b.Number)
		}
		if !b.Weight.IsPositive() {
			return apperror.NewValidationCode(apperror.CodeMissingWeight, "Weight must be greater than zero").
				WithDetail("index", i).
				WithDetail("atado", b.Number)
		}
	}
	return nil
}

// Totals splits the summed weight into over-order (non-quality) and quality kilograms.
func Totals(bundles []Bundle) (overOrder, quality types.Kilograms) {
	for _, b := range bundles {
		if b.Quality {
			quality += b.Weight
		} else {
			overOrder += b.Weight
		}
	}
	return overOrder, quality
}

// Rolls sums the roll count of all bundles.
func Rolls(bundles []Bundle) int {
	total := 0
	for _, b := range bundles {
		total += b.Rolls
	}
	return total
}
