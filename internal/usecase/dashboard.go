package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"OilPulse/internal/domain/models"
	"OilPulse/internal/domain/repository"
	"OilPulse/internal/services/correlate"
	"OilPulse/internal/services/query"
	"OilPulse/internal/services/stats"
	"OilPulse/internal/store"
	"OilPulse/pkg/cache"
	"OilPulse/pkg/logger"
	"OilPulse/pkg/metrics"
)

const cachePrefix = "oilpulse:resp"

// SnapshotStore is the part of store.Store the dashboard reads from.
type SnapshotStore interface {
	Current() (*store.Snapshot, error)
	Reload(ctx context.Context) (*store.Snapshot, error)
}

// EventFilter selects events by date range and type. Empty Types means all types.
type EventFilter struct {
	Range query.DateRange
	Types []string
}

// DashboardUseCase answers every dashboard query against the current snapshot.
// Results of the heavier aggregations are cached per snapshot generation.
type DashboardUseCase struct {
	store   SnapshotStore
	cache   cache.Service
	ttl     time.Duration
	metrics repository.Metrics
	l       *logger.Logger
}

func NewDashboardUseCase(st SnapshotStore, c cache.Service, ttl time.Duration, m repository.Metrics, l *logger.Logger) *DashboardUseCase {
	if c == nil {
		c = cache.Nop{}
	}
	if m == nil {
		m = metrics.Nop{}
	}
	if l == nil {
		l = logger.Nop()
	}
	return &DashboardUseCase{store: st, cache: c, ttl: ttl, metrics: m, l: l.With(logger.String("component", "dashboard"))}
}

// Health never fails; it reports whether a snapshot is installed.
func (uc *DashboardUseCase) Health() models.Health {
	h := models.Health{Status: "ok"}
	snap, err := uc.store.Current()
	if err != nil {
		h.Status = "degraded"
		return h
	}
	loadedAt := snap.LoadedAt
	h.DataLoaded = true
	h.Generation = snap.Generation
	h.Source = snap.Source
	h.LoadedAt = &loadedAt
	h.Prices = len(snap.Prices)
	h.Events = len(snap.Events)
	return h
}

func (uc *DashboardUseCase) Prices(_ context.Context, r query.DateRange) ([]models.PriceObservation, error) {
	snap, err := uc.store.Current()
	if err != nil {
		return nil, err
	}
	return query.FilterPrices(snap.Prices, r), nil
}

func (uc *DashboardUseCase) Events(_ context.Context, f EventFilter) ([]models.Event, error) {
	snap, err := uc.store.Current()
	if err != nil {
		return nil, err
	}
	return query.FilterEvents(snap.Events, f.Range, f.Types), nil
}

func (uc *DashboardUseCase) Changepoint(_ context.Context) (models.ChangepointResult, error) {
	snap, err := uc.store.Current()
	if err != nil {
		return models.ChangepointResult{}, err
	}
	return snap.Changepoint, nil
}

func (uc *DashboardUseCase) EventTypes(_ context.Context) ([]string, error) {
	snap, err := uc.store.Current()
	if err != nil {
		return nil, err
	}
	return query.EventTypes(snap.Events), nil
}

func (uc *DashboardUseCase) DateRange(_ context.Context) (models.DateBounds, error) {
	snap, err := uc.store.Current()
	if err != nil {
		return models.DateBounds{}, err
	}
	b, ok := query.Bounds(snap.Prices)
	if !ok {
		return models.DateBounds{}, fmt.Errorf("%w: price series is empty", models.ErrDataUnavailable)
	}
	return b, nil
}

// Statistics summarizes the prices inside r.
func (uc *DashboardUseCase) Statistics(ctx context.Context, r query.DateRange) (models.Stats, error) {
	snap, err := uc.store.Current()
	if err != nil {
		return models.Stats{}, err
	}
	return cached(ctx, uc, "statistics", snap.Generation, []interface{}{rangeKey(r)}, func() models.Stats {
		return stats.Summarize(query.FilterPrices(snap.Prices, r))
	}), nil
}

// Regimes compares the prices before and after the changepoint, both restricted to r.
func (uc *DashboardUseCase) Regimes(ctx context.Context, r query.DateRange) (models.RegimeComparison, error) {
	snap, err := uc.store.Current()
	if err != nil {
		return models.RegimeComparison{}, err
	}
	return cached(ctx, uc, "regimes", snap.Generation, []interface{}{rangeKey(r)}, func() models.RegimeComparison {
		return stats.CompareRegimes(snap.Prices, r, snap.Changepoint.ChangePointDate)
	}), nil
}

// Histogram bins the defined log returns inside r.
func (uc *DashboardUseCase) Histogram(ctx context.Context, r query.DateRange, bins int) ([]models.HistogramBin, error) {
	snap, err := uc.store.Current()
	if err != nil {
		return nil, err
	}
	return cached(ctx, uc, "histogram", snap.Generation, []interface{}{rangeKey(r), bins}, func() []models.HistogramBin {
		return stats.ReturnHistogram(query.FilterPrices(snap.Prices, r), bins)
	}), nil
}

// Closest returns the limit filtered events nearest to the changepoint.
func (uc *DashboardUseCase) Closest(_ context.Context, f EventFilter, limit int) ([]models.CorrelatedEvent, error) {
	snap, err := uc.store.Current()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = correlate.DefaultClosest
	}
	events := query.FilterEvents(snap.Events, f.Range, f.Types)
	return correlate.Closest(events, snap.Changepoint.ChangePointDate, limit), nil
}

// Timeline returns the filtered events in date order, each with the price observed
// nearest to its date.
func (uc *DashboardUseCase) Timeline(_ context.Context, f EventFilter) ([]models.CorrelatedEvent, error) {
	snap, err := uc.store.Current()
	if err != nil {
		return nil, err
	}
	events := query.FilterEvents(snap.Events, f.Range, f.Types)
	out := correlate.Chronological(events, snap.Changepoint.ChangePointDate)
	for i := range out {
		if p, ok := query.NearestPrice(snap.Prices, out[i].Date); ok {
			price := p.Price
			out[i].PriceAtEvent = &price
		}
	}
	return out, nil
}

// Breakdown counts the filtered events per type.
func (uc *DashboardUseCase) Breakdown(ctx context.Context, f EventFilter) ([]models.CategoryCount, error) {
	snap, err := uc.store.Current()
	if err != nil {
		return nil, err
	}
	return cached(ctx, uc, "breakdown", snap.Generation, []interface{}{rangeKey(f.Range), f.Types}, func() []models.CategoryCount {
		return correlate.GroupByType(query.FilterEvents(snap.Events, f.Range, f.Types))
	}), nil
}

// Reload re-reads the artifacts and drops cached responses of older generations.
func (uc *DashboardUseCase) Reload(ctx context.Context) (models.SnapshotNotice, error) {
	snap, err := uc.store.Reload(ctx)
	if err != nil {
		return models.SnapshotNotice{}, err
	}
	if err := uc.cache.DeleteByPattern(ctx, cache.BuildPattern(cachePrefix)); err != nil {
		uc.l.Warn("Failed to purge response cache", logger.Error(err))
	}
	return NoticeOf(snap), nil
}

// NoticeOf describes snap for push subscribers.
func NoticeOf(snap *store.Snapshot) models.SnapshotNotice {
	return models.SnapshotNotice{
		Generation: snap.Generation,
		LoadedAt:   snap.LoadedAt,
		Source:     snap.Source,
		Prices:     len(snap.Prices),
		Events:     len(snap.Events),
	}
}

// cached serves compute() through the response cache. Keys carry the snapshot
// generation so a reload never serves results of older artifacts. Cache failures
// degrade to computing the value.
func cached[T any](ctx context.Context, uc *DashboardUseCase, endpoint string, gen uint64, params []interface{}, compute func() T) T {
	key := cache.ResponseKey(cachePrefix, endpoint, gen, params...)

	v, err := cache.GetJSON[T](ctx, uc.cache, key)
	if err == nil {
		uc.metrics.RecordCache(endpoint, true)
		return v
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		uc.l.Warn("Response cache read failed", logger.String("endpoint", endpoint), logger.Error(err))
	}
	uc.metrics.RecordCache(endpoint, false)

	v = compute()
	if err := cache.SetJSON(ctx, uc.cache, key, v, uc.ttl); err != nil {
		uc.l.Warn("Response cache write failed", logger.String("endpoint", endpoint), logger.Error(err))
	}
	return v
}

func rangeKey(r query.DateRange) string {
	from, to := "-", "-"
	if r.From != nil {
		from = r.From.String()
	}
	if r.To != nil {
		to = r.To.String()
	}
	return from + ".." + to
}
