// Package stats computes summary statistics over slices of the price series.
package stats

import (
	"math"
	"sort"

	"OilPulse/internal/domain/models"
	"OilPulse/internal/services/features"
	"OilPulse/internal/services/query"
)

// DefaultHistogramBins matches the return distribution chart of the dashboard.
const DefaultHistogramBins = 100

// Summarize describes a slice. An empty slice yields Count 0 with every other field nil.
// Standard deviations are sample deviations (N-1) and collapse to 0 for a single value.
func Summarize(slice []models.PriceObservation) models.Stats {
	out := models.Stats{Count: len(slice)}
	if len(slice) == 0 {
		return out
	}

	prices := make([]float64, len(slice))
	for i, p := range slice {
		prices[i] = p.Price
	}
	mean, std := meanStd(prices)
	out.MeanPrice = ptr(mean)
	out.StdPrice = ptr(std)
	out.MedianPrice = ptr(median(prices))

	lo, hi := prices[0], prices[0]
	for _, p := range prices[1:] {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	out.MinPrice = ptr(lo)
	out.MaxPrice = ptr(hi)

	if returns := features.DefinedReturns(slice); len(returns) > 0 {
		m, s := meanStd(returns)
		out.MeanReturn = ptr(m)
		out.VolatilityReturn = ptr(s)
	}
	return out
}

// CompareRegimes summarizes the part of r strictly before the changepoint and the
// part on or after it. The two halves are disjoint and together cover r.
func CompareRegimes(series []models.PriceObservation, r query.DateRange, cp models.Date) models.RegimeComparison {
	lastBefore := cp.AddDays(-1)
	return models.RegimeComparison{
		ChangepointDate: cp,
		Before:          Summarize(query.FilterPrices(series, r.Clamp(nil, &lastBefore))),
		After:           Summarize(query.FilterPrices(series, r.Clamp(&cp, nil))),
	}
}

// ReturnHistogram buckets the defined log returns of a slice into equal-width bins
// spanning [min, max]. No defined returns yields an empty histogram.
func ReturnHistogram(slice []models.PriceObservation, bins int) []models.HistogramBin {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	returns := features.DefinedReturns(slice)
	if len(returns) == 0 {
		return []models.HistogramBin{}
	}

	lo, hi := returns[0], returns[0]
	for _, r := range returns[1:] {
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}
	if lo == hi {
		return []models.HistogramBin{{Lower: lo, Upper: hi, Count: len(returns)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]models.HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, r := range returns {
		i := int((r - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

func meanStd(xs []float64) (mean, std float64) {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}

func median(xs []float64) float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func ptr(v float64) *float64 { return &v }
