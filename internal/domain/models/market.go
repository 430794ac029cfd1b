package models

// PriceObservation is one row of the price series.
// LogReturn is nil where no prior price exists to difference against.
type PriceObservation struct {
	Date      Date     `json:"date"`
	Price     float64  `json:"price"`
	LogReturn *float64 `json:"log_return"`
}

// Event is one entry of the curated event catalog. EventType is an open set.
type Event struct {
	Date           Date   `json:"date"`
	EventType      string `json:"event_type"`
	Description    string `json:"description"`
	ExpectedImpact string `json:"expected_impact"`
}

// ChangepointResult is the upstream changepoint artifact, served verbatim.
// ChangePointIndex refers to the series ordering it was computed on and is informational only.
type ChangepointResult struct {
	ChangePointDate            Date    `json:"change_point_date"`
	ChangePointIndex           int     `json:"change_point_index"`
	ChangePointUncertaintyDays float64 `json:"change_point_uncertainty_days"`
	MuBefore                   float64 `json:"mu_before"`
	MuAfter                    float64 `json:"mu_after"`
	SigmaBefore                float64 `json:"sigma_before"`
	SigmaAfter                 float64 `json:"sigma_after"`
	MeanChange                 float64 `json:"mean_change"`
	VolatilityChange           float64 `json:"volatility_change"`
	ProbMeanIncrease           float64 `json:"prob_mean_increase"`
	ProbVolatilityIncrease     float64 `json:"prob_volatility_increase"`
	PriceBefore                float64 `json:"price_before"`
	PriceAfter                 float64 `json:"price_after"`
	PriceChangePct             float64 `json:"price_change_pct"`
}

// DateBounds is the min/max date of the price series.
type DateBounds struct {
	MinDate Date `json:"min_date"`
	MaxDate Date `json:"max_date"`
}
