package repository

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"OilPulse/internal/domain/models"
	domrepo "OilPulse/internal/domain/repository"
	"OilPulse/internal/services/features"
	applogger "OilPulse/pkg/logger"
	"OilPulse/pkg/util"
)

// FileSourceConfig points at the three artifacts on disk. Prices may be CSV or Parquet,
// selected by the file extension.
type FileSourceConfig struct {
	PricesPath      string
	EventsPath      string
	ChangepointPath string
}

// FileSource reads artifacts written by the offline analysis pipeline.
type FileSource struct {
	cfg FileSourceConfig
	l   *applogger.Logger
}

func NewFileSource(cfg FileSourceConfig, l *applogger.Logger) *FileSource {
	return &FileSource{cfg: cfg, l: l}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Fetch(ctx context.Context) (*domrepo.Artifacts, error) {
	start := time.Now()

	prices, err := s.readPrices()
	if err != nil {
		return nil, unavailable(s.cfg.PricesPath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	events, err := readFile(s.cfg.EventsPath, ReadEventsCSV)
	if err != nil {
		return nil, unavailable(s.cfg.EventsPath, err)
	}

	cp, err := readFile(s.cfg.ChangepointPath, ReadChangepointJSON)
	if err != nil {
		return nil, unavailable(s.cfg.ChangepointPath, err)
	}

	if s.l != nil {
		s.l.Debug("file artifacts read",
			applogger.String("prices_path", s.cfg.PricesPath),
			applogger.Int("prices", len(prices)),
			applogger.Int("events", len(events)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return &domrepo.Artifacts{Prices: prices, Events: events, Changepoint: cp}, nil
}

func (s *FileSource) readPrices() ([]models.PriceObservation, error) {
	if strings.EqualFold(filepath.Ext(s.cfg.PricesPath), ".parquet") {
		return ReadPricesParquet(s.cfg.PricesPath)
	}
	return readFile(s.cfg.PricesPath, ReadPricesCSV)
}

func readFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer func() { _ = f.Close() }()
	return parse(f)
}

func unavailable(path string, err error) error {
	if errors.Is(err, models.ErrDataUnavailable) {
		return fmt.Errorf("%s: %w", path, err)
	}
	return fmt.Errorf("%w: %s: %v", models.ErrDataUnavailable, path, err)
}

// ReadPricesCSV parses a price table with Date and Price columns and an optional
// log_return column. Header names are matched case-insensitively and extra columns
// are ignored. Without a log_return column, returns are derived from the prices.
func ReadPricesCSV(r io.Reader) ([]models.PriceObservation, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	dateIdx, err := header.require("date")
	if err != nil {
		return nil, err
	}
	priceIdx, err := header.require("price")
	if err != nil {
		return nil, err
	}
	retIdx, hasReturns := header.find("log_return")

	out := make([]models.PriceObservation, 0, len(rows))
	for i, rec := range rows {
		line := i + 2
		d, err := parseArtifactDate(rec[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[priceIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: price %q is not numeric", models.ErrDataUnavailable, line, rec[priceIdx])
		}
		obs := models.PriceObservation{Date: d, Price: price}
		if hasReturns {
			obs.LogReturn, err = parseOptionalFloat(rec[retIdx])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: log_return %q is not numeric", models.ErrDataUnavailable, line, rec[retIdx])
			}
		}
		out = append(out, obs)
	}

	if !hasReturns {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
		features.ComputeLogReturns(out)
	}
	return out, nil
}

// ReadEventsCSV parses the event catalog. Date, Event_Type and Description are
// required; Expected_Impact may be absent.
func ReadEventsCSV(r io.Reader) ([]models.Event, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	dateIdx, err := header.require("date")
	if err != nil {
		return nil, err
	}
	typeIdx, err := header.require("event_type")
	if err != nil {
		return nil, err
	}
	descIdx, err := header.require("description")
	if err != nil {
		return nil, err
	}
	impactIdx, hasImpact := header.find("expected_impact")

	out := make([]models.Event, 0, len(rows))
	for i, rec := range rows {
		d, err := parseArtifactDate(rec[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		e := models.Event{
			Date:        d,
			EventType:   strings.TrimSpace(rec[typeIdx]),
			Description: strings.TrimSpace(rec[descIdx]),
		}
		if hasImpact {
			e.ExpectedImpact = strings.TrimSpace(rec[impactIdx])
		}
		out = append(out, e)
	}
	return out, nil
}

var changepointKeys = []string{
	"change_point_date", "change_point_index", "change_point_uncertainty_days",
	"mu_before", "mu_after", "sigma_before", "sigma_after", "mean_change", "volatility_change",
	"prob_mean_increase", "prob_volatility_increase", "price_before", "price_after", "price_change_pct",
}

// ReadChangepointJSON parses the changepoint record. Every field must be present so
// a renamed key fails loudly instead of reading as zero; extra keys are ignored.
func ReadChangepointJSON(r io.Reader) (models.ChangepointResult, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return models.ChangepointResult{}, fmt.Errorf("%w: changepoint: %v", models.ErrDataUnavailable, err)
	}
	for _, k := range changepointKeys {
		if _, ok := fields[k]; !ok {
			return models.ChangepointResult{}, fmt.Errorf("%w: changepoint: missing field %q", models.ErrDataUnavailable, k)
		}
	}

	var raw struct {
		models.ChangepointResult
		ChangePointDate string `json:"change_point_date"`
	}
	buf, _ := json.Marshal(fields)
	if err := json.Unmarshal(buf, &raw); err != nil {
		return models.ChangepointResult{}, fmt.Errorf("%w: changepoint: %v", models.ErrDataUnavailable, err)
	}
	d, err := parseArtifactDate(raw.ChangePointDate)
	if err != nil {
		return models.ChangepointResult{}, fmt.Errorf("changepoint: %w", err)
	}
	out := raw.ChangepointResult
	out.ChangePointDate = d
	return out, nil
}

type csvHeader map[string]int

func (h csvHeader) find(name string) (int, bool) {
	i, ok := h[name]
	return i, ok
}

func (h csvHeader) require(name string) (int, error) {
	i, ok := h[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing column %q", models.ErrDataUnavailable, name)
	}
	return i, nil
}

func readCSV(r io.Reader) (csvHeader, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: empty file", models.ErrDataUnavailable)
		}
		return nil, nil, fmt.Errorf("%w: header: %v", models.ErrDataUnavailable, err)
	}
	header := make(csvHeader, len(head))
	for i, name := range head {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := header[name]; !dup {
			header[name] = i
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrDataUnavailable, err)
	}
	return header, rows, nil
}

func parseArtifactDate(s string) (models.Date, error) {
	t, ok := util.ParseTime(s)
	if !ok {
		return models.Date{}, fmt.Errorf("%w: unparseable date %q", models.ErrDataUnavailable, s)
	}
	return models.DateOf(t), nil
}

// parseOptionalFloat maps empty, NA and NaN cells to nil.
func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "none":
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, nil
	}
	return &v, nil
}
