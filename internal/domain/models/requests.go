package models

// Requests for dashboard HTTP endpoints. Dates stay strings here so that malformed
// values surface as validation errors rather than bind errors.

type RangeRequest struct {
	StartDate string `query:"start_date" json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `query:"end_date" json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type EventsRequest struct {
	RangeRequest
	EventType []string `query:"event_type" json:"event_type"`
}

type ClosestEventsRequest struct {
	EventsRequest
	Limit int `query:"limit" json:"limit" default:"5" validate:"gte=1,lte=1000"`
}

type HistogramRequest struct {
	RangeRequest
	Bins int `query:"bins" json:"bins" default:"100" validate:"gte=1,lte=1000"`
}
