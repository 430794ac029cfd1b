package models

// Stats summarizes a slice of the price series. Every pointer field is nil when
// Count is zero; the return fields are also nil when no row carries a log return.
type Stats struct {
	Count            int      `json:"count"`
	MeanPrice        *float64 `json:"mean_price"`
	MedianPrice      *float64 `json:"median_price"`
	StdPrice         *float64 `json:"std_price"`
	MinPrice         *float64 `json:"min_price"`
	MaxPrice         *float64 `json:"max_price"`
	MeanReturn       *float64 `json:"mean_return"`
	VolatilityReturn *float64 `json:"volatility_return"`
}

// RegimeComparison holds the before/after summaries around a changepoint.
type RegimeComparison struct {
	ChangepointDate Date  `json:"change_point_date"`
	Before          Stats `json:"before"`
	After           Stats `json:"after"`
}

// HistogramBin is one equal-width bucket of a return distribution; the upper edge is
// exclusive except on the last bin.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// CorrelatedEvent is an event annotated with its distance to the changepoint.
type CorrelatedEvent struct {
	Event
	DaysFromChangepoint int      `json:"days_from_changepoint"`
	AbsDays             int      `json:"abs_days"`
	PriceAtEvent        *float64 `json:"price_at_event,omitempty"`

	// position in the input catalog, used for deterministic tie-breaks
	Seq int `json:"-"`
}

// CategoryCount is the number of events of one type.
type CategoryCount struct {
	EventType string `json:"event_type"`
	Count     int    `json:"count"`
}
