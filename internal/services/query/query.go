// Package query filters the price series and event catalog of a snapshot.
// Every function is a pure projection: inputs are never modified.
package query

import (
	"sort"

	"OilPulse/internal/domain/models"
)

// DateRange is an inclusive range with optional endpoints.
type DateRange struct {
	From *models.Date
	To   *models.Date
}

// Between builds a range with both endpoints set.
func Between(from, to models.Date) DateRange {
	return DateRange{From: &from, To: &to}
}

// Inverted reports whether both endpoints are set and From is after To.
func (r DateRange) Inverted() bool {
	return r.From != nil && r.To != nil && r.From.After(*r.To)
}

// Contains reports whether d lies within the range.
func (r DateRange) Contains(d models.Date) bool {
	if r.From != nil && d.Before(*r.From) {
		return false
	}
	if r.To != nil && d.After(*r.To) {
		return false
	}
	return true
}

// Clamp intersects r with [from, to], either bound optional.
func (r DateRange) Clamp(from, to *models.Date) DateRange {
	out := r
	if from != nil && (out.From == nil || from.After(*out.From)) {
		f := *from
		out.From = &f
	}
	if to != nil && (out.To == nil || to.Before(*out.To)) {
		t := *to
		out.To = &t
	}
	return out
}

// FilterPrices returns a copy of the contiguous run of a date-sorted series with
// From <= date <= To. An inverted range yields an empty slice.
func FilterPrices(series []models.PriceObservation, r DateRange) []models.PriceObservation {
	if r.Inverted() {
		return []models.PriceObservation{}
	}
	lo, hi := 0, len(series)
	if r.From != nil {
		from := *r.From
		lo = sort.Search(len(series), func(i int) bool { return !series[i].Date.Before(from) })
	}
	if r.To != nil {
		to := *r.To
		hi = sort.Search(len(series), func(i int) bool { return series[i].Date.After(to) })
	}
	if lo >= hi {
		return []models.PriceObservation{}
	}
	out := make([]models.PriceObservation, hi-lo)
	copy(out, series[lo:hi])
	return out
}

// FilterEvents keeps events inside r whose type is in types. An empty types list
// means every type present; unknown types simply match nothing.
func FilterEvents(catalog []models.Event, r DateRange, types []string) []models.Event {
	out := []models.Event{}
	if r.Inverted() {
		return out
	}
	var want map[string]struct{}
	if len(types) > 0 {
		want = make(map[string]struct{}, len(types))
		for _, t := range types {
			want[t] = struct{}{}
		}
	}
	for _, e := range catalog {
		if !r.Contains(e.Date) {
			continue
		}
		if want != nil {
			if _, ok := want[e.EventType]; !ok {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// EventTypes returns the distinct event types in order of first appearance.
func EventTypes(catalog []models.Event) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, e := range catalog {
		if _, ok := seen[e.EventType]; ok {
			continue
		}
		seen[e.EventType] = struct{}{}
		out = append(out, e.EventType)
	}
	return out
}

// Bounds returns the first and last dates of a date-sorted series.
func Bounds(series []models.PriceObservation) (models.DateBounds, bool) {
	if len(series) == 0 {
		return models.DateBounds{}, false
	}
	return models.DateBounds{
		MinDate: series[0].Date,
		MaxDate: series[len(series)-1].Date,
	}, true
}

// NearestPrice returns the observation closest in time to d; the earlier one wins a tie.
func NearestPrice(series []models.PriceObservation, d models.Date) (models.PriceObservation, bool) {
	if len(series) == 0 {
		return models.PriceObservation{}, false
	}
	i := sort.Search(len(series), func(i int) bool { return !series[i].Date.Before(d) })
	switch {
	case i == 0:
		return series[0], true
	case i == len(series):
		return series[len(series)-1], true
	}
	prev, next := series[i-1], series[i]
	if d.DaysSince(prev.Date) <= next.Date.DaysSince(d) {
		return prev, true
	}
	return next, true
}
