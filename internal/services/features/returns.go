package features

import (
	"math"

	"OilPulse/internal/domain/models"
)

// ComputeLogReturns fills r_t = ln(P_t / P_{t-1}) on a date-sorted series.
// The first observation has no prior price and keeps a nil return.
func ComputeLogReturns(prices []models.PriceObservation) {
	for i := range prices {
		if i == 0 {
			prices[i].LogReturn = nil
			continue
		}
		prev := prices[i-1].Price
		cur := prices[i].Price
		if prev <= 0 || cur <= 0 {
			prices[i].LogReturn = nil
			continue
		}
		r := math.Log(cur / prev)
		prices[i].LogReturn = &r
	}
}

// DefinedReturns collects the non-nil log returns of a slice, in order.
func DefinedReturns(prices []models.PriceObservation) []float64 {
	out := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p.LogReturn != nil {
			out = append(out, *p.LogReturn)
		}
	}
	return out
}
