// Package correlate measures how far catalog events sit from the changepoint
// and orders them for the event analysis views.
package correlate

import (
	"sort"

	"OilPulse/internal/domain/models"
)

// DefaultClosest is the size of the closest-events view.
const DefaultClosest = 5

// Correlate annotates events with their signed and absolute whole-day distance to cp.
// Negative distances are before the changepoint. Input order is kept.
func Correlate(events []models.Event, cp models.Date) []models.CorrelatedEvent {
	out := make([]models.CorrelatedEvent, len(events))
	for i, e := range events {
		d := e.Date.DaysSince(cp)
		out[i] = models.CorrelatedEvent{
			Event:               e,
			DaysFromChangepoint: d,
			AbsDays:             abs(d),
			Seq:                 i,
		}
	}
	return out
}

// NearestFirst orders events by absolute distance, then by date, then by catalog order.
func NearestFirst(events []models.Event, cp models.Date) []models.CorrelatedEvent {
	out := Correlate(events, cp)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AbsDays != b.AbsDays {
			return a.AbsDays < b.AbsDays
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Seq < b.Seq
	})
	return out
}

// Chronological orders events by date, then by catalog order.
func Chronological(events []models.Event, cp models.Date) []models.CorrelatedEvent {
	out := Correlate(events, cp)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Seq < b.Seq
	})
	return out
}

// Closest returns the first n events of NearestFirst.
func Closest(events []models.Event, cp models.Date, n int) []models.CorrelatedEvent {
	out := NearestFirst(events, cp)
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// GroupByType counts events per type, most frequent first; equal counts keep
// the order in which the type first appears.
func GroupByType(events []models.Event) []models.CategoryCount {
	index := make(map[string]int)
	out := []models.CategoryCount{}
	for _, e := range events {
		i, ok := index[e.EventType]
		if !ok {
			i = len(out)
			index[e.EventType] = i
			out = append(out, models.CategoryCount{EventType: e.EventType})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
