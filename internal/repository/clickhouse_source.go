package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"OilPulse/internal/domain/models"
	domrepo "OilPulse/internal/domain/repository"
	pkgch "OilPulse/pkg/clickhouse"
	applogger "OilPulse/pkg/logger"
)

// ClickHouseSchema creates the artifact tables the analysis pipeline publishes into.
func ClickHouseSchema(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.brent_prices (
            date Date,
            price Float64,
            log_return Nullable(Float64)
        ) ENGINE = ReplacingMergeTree ORDER BY date`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.events (
            seq UInt32,
            date Date,
            event_type LowCardinality(String),
            description String,
            expected_impact String
        ) ENGINE = MergeTree ORDER BY seq`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.changepoint_results (
            published_at DateTime64(3),
            change_point_date Date,
            change_point_index Int64,
            change_point_uncertainty_days Float64,
            mu_before Float64,
            mu_after Float64,
            sigma_before Float64,
            sigma_after Float64,
            mean_change Float64,
            volatility_change Float64,
            prob_mean_increase Float64,
            prob_volatility_increase Float64,
            price_before Float64,
            price_after Float64,
            price_change_pct Float64
        ) ENGINE = MergeTree ORDER BY published_at`, database),
	}
}

// CHSource reads artifacts from ClickHouse tables. The most recently published
// changepoint row wins.
type CHSource struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHSource(ch *pkgch.Client, database string, l *applogger.Logger) *CHSource {
	return &CHSource{db: ch.DB(), database: database, l: l}
}

func (s *CHSource) Name() string { return "clickhouse" }

func (s *CHSource) Fetch(ctx context.Context) (*domrepo.Artifacts, error) {
	start := time.Now()

	prices, err := s.prices(ctx)
	if err != nil {
		return nil, s.fail("prices", err)
	}
	events, err := s.events(ctx)
	if err != nil {
		return nil, s.fail("events", err)
	}
	cp, err := s.changepoint(ctx)
	if err != nil {
		return nil, s.fail("changepoint", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse artifacts ok",
			applogger.String("database", s.database),
			applogger.Int("prices", len(prices)),
			applogger.Int("events", len(events)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return &domrepo.Artifacts{Prices: prices, Events: events, Changepoint: cp}, nil
}

func (s *CHSource) fail(artifact string, err error) error {
	if s.l != nil {
		s.l.Error("clickhouse artifact query error",
			applogger.String("database", s.database),
			applogger.String("artifact", artifact),
			applogger.Error(err),
		)
	}
	return fmt.Errorf("%w: clickhouse %s: %v", models.ErrDataUnavailable, artifact, err)
}

func (s *CHSource) prices(ctx context.Context) ([]models.PriceObservation, error) {
	q := fmt.Sprintf(`
        SELECT date, price, log_return
        FROM %s.brent_prices FINAL
        ORDER BY date ASC
    `, s.database)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.PriceObservation, 0, 8192)
	for rows.Next() {
		var (
			d   time.Time
			p   float64
			ret sql.NullFloat64
		)
		if err := rows.Scan(&d, &p, &ret); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		obs := models.PriceObservation{Date: models.DateOf(d), Price: p}
		if ret.Valid {
			v := ret.Float64
			obs.LogReturn = &v
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

func (s *CHSource) events(ctx context.Context) ([]models.Event, error) {
	q := fmt.Sprintf(`
        SELECT date, event_type, description, expected_impact
        FROM %s.events
        ORDER BY seq ASC
    `, s.database)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Event, 0, 64)
	for rows.Next() {
		var (
			d time.Time
			e models.Event
		)
		if err := rows.Scan(&d, &e.EventType, &e.Description, &e.ExpectedImpact); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Date = models.DateOf(d)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *CHSource) changepoint(ctx context.Context) (models.ChangepointResult, error) {
	q := fmt.Sprintf(`
        SELECT change_point_date, change_point_index, change_point_uncertainty_days,
               mu_before, mu_after, sigma_before, sigma_after, mean_change, volatility_change,
               prob_mean_increase, prob_volatility_increase, price_before, price_after, price_change_pct
        FROM %s.changepoint_results
        ORDER BY published_at DESC
        LIMIT 1
    `, s.database)

	var (
		cp  models.ChangepointResult
		d   time.Time
		idx int64
	)
	err := s.db.QueryRowContext(ctx, q).Scan(
		&d, &idx, &cp.ChangePointUncertaintyDays,
		&cp.MuBefore, &cp.MuAfter, &cp.SigmaBefore, &cp.SigmaAfter, &cp.MeanChange, &cp.VolatilityChange,
		&cp.ProbMeanIncrease, &cp.ProbVolatilityIncrease, &cp.PriceBefore, &cp.PriceAfter, &cp.PriceChangePct,
	)
	if err != nil {
		return cp, err
	}
	cp.ChangePointDate = models.DateOf(d)
	cp.ChangePointIndex = int(idx)
	return cp, nil
}
