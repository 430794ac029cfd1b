package repository

import (
	"fmt"
	"math"
	"sort"

	"OilPulse/internal/domain/models"
)

// Normalize sorts the price series by date and checks the invariants every source
// must satisfy: positive prices, unique dates, a sane changepoint record.
func (a *Artifacts) Normalize() error {
	sort.SliceStable(a.Prices, func(i, j int) bool {
		return a.Prices[i].Date.Before(a.Prices[j].Date)
	})
	for i, p := range a.Prices {
		if !(p.Price > 0) || math.IsInf(p.Price, 0) {
			return fmt.Errorf("%w: price on %s must be positive, got %v", models.ErrDataUnavailable, p.Date, p.Price)
		}
		if p.LogReturn != nil && (math.IsNaN(*p.LogReturn) || math.IsInf(*p.LogReturn, 0)) {
			a.Prices[i].LogReturn = nil
		}
		if i > 0 && a.Prices[i-1].Date.Equal(p.Date) {
			return fmt.Errorf("%w: duplicate price date %s", models.ErrDataUnavailable, p.Date)
		}
	}
	for _, e := range a.Events {
		if e.EventType == "" {
			return fmt.Errorf("%w: event on %s has empty event_type", models.ErrDataUnavailable, e.Date)
		}
	}
	return ValidateChangepoint(a.Changepoint)
}

// ValidateChangepoint checks ranges of the changepoint record.
func ValidateChangepoint(cp models.ChangepointResult) error {
	switch {
	case cp.ChangePointDate.IsZero():
		return fmt.Errorf("%w: change_point_date is required", models.ErrDataUnavailable)
	case cp.ChangePointUncertaintyDays < 0:
		return fmt.Errorf("%w: change_point_uncertainty_days must be >= 0", models.ErrDataUnavailable)
	case cp.SigmaBefore < 0 || cp.SigmaAfter < 0:
		return fmt.Errorf("%w: sigma_before/sigma_after must be >= 0", models.ErrDataUnavailable)
	case !inUnit(cp.ProbMeanIncrease) || !inUnit(cp.ProbVolatilityIncrease):
		return fmt.Errorf("%w: probabilities must lie in [0,1]", models.ErrDataUnavailable)
	case !(cp.PriceBefore > 0) || !(cp.PriceAfter > 0):
		return fmt.Errorf("%w: price_before/price_after must be positive", models.ErrDataUnavailable)
	}
	return nil
}

func inUnit(p float64) bool { return p >= 0 && p <= 1 }
