package stats

import (
	"math"
	"testing"
	"time"

	"OilPulse/internal/domain/models"
	"OilPulse/internal/services/features"
	"OilPulse/internal/services/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) models.Date { return models.NewDate(2020, time.January, d) }

func series(prices ...float64) []models.PriceObservation {
	out := make([]models.PriceObservation, len(prices))
	for i, p := range prices {
		out[i] = models.PriceObservation{Date: day(i + 1), Price: p}
	}
	features.ComputeLogReturns(out)
	return out
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, models.Stats{Count: 0}, s)
}

func TestSummarizeSingleton(t *testing.T) {
	s := Summarize(series(42))
	assert.Equal(t, 1, s.Count)
	require.NotNil(t, s.MeanPrice)
	assert.Equal(t, 42.0, *s.MeanPrice)
	assert.Equal(t, 42.0, *s.MedianPrice)
	assert.Equal(t, 0.0, *s.StdPrice)
	assert.Equal(t, 42.0, *s.MinPrice)
	assert.Equal(t, 42.0, *s.MaxPrice)
	// first row never has a return
	assert.Nil(t, s.MeanReturn)
	assert.Nil(t, s.VolatilityReturn)
}

func TestSummarizeSampleStd(t *testing.T) {
	s := Summarize(series(2, 4, 4, 4, 5, 5, 7, 9))
	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5.0, *s.MeanPrice, 1e-12)
	assert.InDelta(t, 4.5, *s.MedianPrice, 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), *s.StdPrice, 1e-12)
	assert.Equal(t, 2.0, *s.MinPrice)
	assert.Equal(t, 9.0, *s.MaxPrice)
}

func TestSummarizeIgnoresAbsentReturns(t *testing.T) {
	r := 0.1
	slice := []models.PriceObservation{
		{Date: day(1), Price: 10},
		{Date: day(2), Price: 11, LogReturn: &r},
		{Date: day(3), Price: 12},
	}
	s := Summarize(slice)
	require.NotNil(t, s.MeanReturn)
	assert.InDelta(t, 0.1, *s.MeanReturn, 1e-12)
	assert.Equal(t, 0.0, *s.VolatilityReturn)
}

func TestSummarizeNeverNaN(t *testing.T) {
	for _, s := range []models.Stats{Summarize(series(1)), Summarize(series(1, 2)), Summarize(series(3, 3, 3))} {
		for _, v := range []*float64{s.MeanPrice, s.MedianPrice, s.StdPrice, s.MinPrice, s.MaxPrice, s.MeanReturn, s.VolatilityReturn} {
			if v != nil {
				assert.False(t, math.IsNaN(*v))
			}
		}
	}
}

func TestCompareRegimesFixture(t *testing.T) {
	data := series(50, 51, 49, 52, 53)
	cmp := CompareRegimes(data, query.DateRange{}, day(3))

	assert.Equal(t, day(3), cmp.ChangepointDate)
	assert.Equal(t, 2, cmp.Before.Count)
	assert.InDelta(t, 50.5, *cmp.Before.MeanPrice, 1e-9)
	assert.Equal(t, 3, cmp.After.Count)
	assert.InDelta(t, 51.333333333, *cmp.After.MeanPrice, 1e-6)
	assert.Equal(t, 49.0, *cmp.After.MinPrice)
}

func TestCompareRegimesPartitionIsComplete(t *testing.T) {
	data := series(50, 51, 49, 52, 53)
	for a := 1; a <= 5; a++ {
		for b := a; b <= 5; b++ {
			for cp := 0; cp <= 6; cp++ {
				r := query.Between(day(a), day(b))
				cmp := CompareRegimes(data, r, day(cp))
				assert.Equal(t, len(query.FilterPrices(data, r)), cmp.Before.Count+cmp.After.Count)
			}
		}
	}
}

func TestCompareRegimesOneSidedRange(t *testing.T) {
	data := series(50, 51, 49, 52, 53)
	cmp := CompareRegimes(data, query.Between(day(4), day(5)), day(3))
	assert.Equal(t, 0, cmp.Before.Count)
	assert.Nil(t, cmp.Before.MeanPrice)
	assert.Equal(t, 2, cmp.After.Count)
}

func TestReturnHistogram(t *testing.T) {
	data := series(100, 110, 99, 120, 120)
	h := ReturnHistogram(data, 4)
	require.Len(t, h, 4)

	total := 0
	for i, b := range h {
		total += b.Count
		assert.Less(t, b.Lower, b.Upper)
		if i > 0 {
			assert.InDelta(t, h[i-1].Upper, b.Lower, 1e-12)
		}
	}
	assert.Equal(t, 4, total)
	assert.Equal(t, 1, h[0].Count, "the single negative return lands in the lowest bin")
	assert.Equal(t, 1, h[3].Count, "the maximum lands in the last bin")
}

func TestReturnHistogramDegenerate(t *testing.T) {
	assert.Empty(t, ReturnHistogram(series(10), 10))

	flat := ReturnHistogram(series(10, 10, 10), 10)
	require.Len(t, flat, 1)
	assert.Equal(t, 2, flat[0].Count)

	assert.Len(t, ReturnHistogram(series(1, 2, 3, 5), 0), DefaultHistogramBins)
}
