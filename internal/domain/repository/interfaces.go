package repository

import (
	"context"

	"OilPulse/internal/domain/models"
)

// Artifacts is one complete, validated read of the upstream analysis outputs.
type Artifacts struct {
	Prices      []models.PriceObservation
	Events      []models.Event
	Changepoint models.ChangepointResult
}

// ArtifactSource reads the three upstream artifacts. Implementations return an error
// wrapping models.ErrDataUnavailable when any artifact is missing or malformed.
type ArtifactSource interface {
	Name() string
	Fetch(ctx context.Context) (*Artifacts, error)
}

// Metrics records service-level observations.
type Metrics interface {
	RecordLoad(source string, ok bool, seconds float64)
	RecordSnapshot(generation uint64, prices, events int)
	RecordCache(endpoint string, hit bool)
	RecordError(kind string)
}
