package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	models "OilPulse/internal/domain/models"
	"OilPulse/internal/domain/repository"
	"OilPulse/internal/services/features"
	"OilPulse/internal/store"
	"OilPulse/internal/usecase"
	xhttp "OilPulse/pkg/http"
	xlogger "OilPulse/pkg/logger"
	"OilPulse/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixtureSource struct {
	fail bool
}

func (f *fixtureSource) Name() string { return "fixture" }

func (f *fixtureSource) Fetch(context.Context) (*repository.Artifacts, error) {
	if f.fail {
		return nil, errors.New("brent_oil_prices.csv: no such file")
	}
	a := &repository.Artifacts{
		Changepoint: models.ChangepointResult{
			ChangePointDate:  day(3),
			ChangePointIndex: 2,
			PriceBefore:      50.5,
			PriceAfter:       51.33,
			ProbMeanIncrease: 0.97,
		},
		Events: []models.Event{
			{Date: day(5), EventType: "Geopolitical", Description: "plus two"},
			{Date: day(2), EventType: "OPEC_Decision", Description: "minus one"},
			{Date: day(3), EventType: "Economic_Shock", Description: "zero"},
		},
	}
	for i, p := range []float64{50, 51, 49, 52, 53} {
		a.Prices = append(a.Prices, models.PriceObservation{Date: day(i + 1), Price: p})
	}
	features.ComputeLogReturns(a.Prices)
	return a, nil
}

func day(d int) models.Date { return models.NewDate(2020, time.January, d) }

type envelope struct {
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
}

func newServer(t *testing.T, src *fixtureSource, token string) *xhttp.Server {
	t.Helper()
	st := store.New(src, metrics.Nop{}, xlogger.Nop())
	_, _ = st.Load(context.Background())
	uc := usecase.NewDashboardUseCase(st, nil, time.Minute, nil, xlogger.Nop())
	h := NewDashboardHandler(xlogger.Nop(), uc, token)
	return xhttp.NewServer(xlogger.Nop(), []xhttp.Handler{h}, xhttp.WithMetricsPath(""))
}

func call(t *testing.T, s *xhttp.Server, method, target string, header map[string]string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestPricesFilter(t *testing.T) {
	s := newServer(t, &fixtureSource{}, "")
	code, env := call(t, s, http.MethodGet, "/api/prices?start_date=2020-01-02&end_date=2020-01-04", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 3, *env.Count)

	var rows []models.PriceObservation
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Equal(t, day(2), rows[0].Date)
	assert.Equal(t, 49.0, rows[1].Price)
	require.NotNil(t, rows[0].LogReturn)
}

func TestInvertedRangeIsEmpty(t *testing.T) {
	s := newServer(t, &fixtureSource{}, "")
	code, env := call(t, s, http.MethodGet, "/api/prices?start_date=2020-01-05&end_date=2020-01-01", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, *env.Count)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestMalformedDate(t *testing.T) {
	s := newServer(t, &fixtureSource{}, "")
	for _, target := range []string{
		"/api/prices?start_date=01/02/2020",
		"/api/events?end_date=2020-02-30",
		"/api/statistics?start_date=yesterday",
	} {
		code, env := call(t, s, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.False(t, env.Success)
		var errs []map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &errs))
		require.NotEmpty(t, errs)
		assert.Equal(t, "ERR_INVALID_ARGUMENT", errs[0]["code"], target)
	}
}

func TestUnknownEventTypeReturnsEmptyList(t *testing.T) {
	s := newServer(t, &fixtureSource{}, "")
	code, env := call(t, s, http.MethodGet, "/api/events?event_type=Meteor_Strike", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, 0, *env.Count)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestEventTypeAcceptsRepeatedAndCommaSeparated(t *testing.T) {
	s := newServer(t, &fixtureSource{}, "")
	_, env := call(t, s, http.MethodGet, "/api/events?event_type=Geopolitical,OPEC_Decision", nil)
	assert.Equal(t, 2, *env.Count)

	_, env = call(t, s, http.MethodGet, "/api/events?event_type=Geopolitical&event_type=Economic_Shock", nil)
	assert.Equal(t, 2, *env.Count)

	// a space does not separate types
	_, env = call(t, s, http.MethodGet, "/api/events/breakdown?event_type=Geopolitical", nil)
	assert.Equal(t, 1, *env.Count)
	_, env = call(t, s, http.MethodGet, "/api/events/breakdown?event_type=OPEC_Decision%20Geopolitical", nil)
	assert.Equal(t, 0, *env.Count)
}

func TestEventTypesReflectData(t *testing.T) {
	s := newServer(t, &fixtureSource{}, "")
	_, env := call(t, s, http.MethodGet, "/api/event-types", nil)
	var types []string
	require.NoError(t, json.Unmarshal(env.Data, &types))
	assert.Equal(t, []string{"Geopolitical", "OPEC_Decision", "Economic_Shock"}, types)
}

func TestClosestEventsOrder(t *testing.T) {
	s := newServer(t, &fixtureSource{}, "")
	_, env := call(t, s, http.MethodGet, "/api/events/closest", nil)
	var rows []models.CorrelatedEvent
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, []int{0, -1, 2}, []int{rows[0].DaysFromChangepoint, rows[1].DaysFromChangepoint, rows[2].DaysFromChangepoint})

	_, env = call(t, s, http.MethodGet, "/api/events/closest?limit=1", nil)
	assert.Equal(t, 1, *env.Count)

	code, _ := call(t, s, http.MethodGet, "/api/events/closest?limit=-3", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTimelineCarriesPrice(t *testing.T) {
	s := newServer(t, &fixtureSource{}, "")
	_, env := call(t, s, http.MethodGet, "/api/events/timeline", nil)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "2020-01-02", rows[0]["date"])
	assert.Equal(t, 51.0, rows[0]["price_at_event"])
	assert.EqualValues(t, -1, rows[0]["days_from_changepoint"])
}

func TestStatisticsAndRegimes(t *testing.T) {
	s := newServer(t, &fixtureSource{}, "")
	_, env := call(t, s, http.MethodGet, "/api/statistics/regimes", nil)
	var cmp models.RegimeComparison
	require.NoError(t, json.Unmarshal(env.Data, &cmp))
	assert.Equal(t, 2, cmp.Before.Count)
	assert.InDelta(t, 50.5, *cmp.Before.MeanPrice, 1e-9)
	assert.InDelta(t, 51.3333, *cmp.After.MeanPrice, 1e-4)

	_, env = call(t, s, http.MethodGet, "/api/statistics?start_date=2021-01-01", nil)
	assert.JSONEq(t, `{"count":0,"mean_price":null,"median_price":null,"std_price":null,"min_price":null,"max_price":null,"mean_return":null,"volatility_return":null}`, string(env.Data))
}

func TestChangepointAndDateRange(t *testing.T) {
	s := newServer(t, &fixtureSource{}, "")
	_, env := call(t, s, http.MethodGet, "/api/changepoint", nil)
	var cp map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &cp))
	assert.Equal(t, "2020-01-03", cp["change_point_date"])
	assert.EqualValues(t, 2, cp["change_point_index"])
	assert.Len(t, cp, 14)

	_, env = call(t, s, http.MethodGet, "/api/date-range", nil)
	assert.JSONEq(t, `{"min_date":"2020-01-01","max_date":"2020-01-05"}`, string(env.Data))
}

func TestHistogramAndBreakdown(t *testing.T) {
	s := newServer(t, &fixtureSource{}, "")
	_, env := call(t, s, http.MethodGet, "/api/returns/histogram?bins=3", nil)
	assert.Equal(t, 3, *env.Count)

	_, env = call(t, s, http.MethodGet, "/api/events/breakdown", nil)
	assert.Equal(t, 3, *env.Count)
}

func TestUnavailableData(t *testing.T) {
	s := newServer(t, &fixtureSource{fail: true}, "")

	code, env := call(t, s, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
	var health models.Health
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.False(t, health.DataLoaded)

	for _, target := range []string{"/api/prices", "/api/events", "/api/changepoint", "/api/statistics", "/api/event-types", "/api/date-range"} {
		code, env := call(t, s, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusServiceUnavailable, code, target)
		var errs []map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &errs))
		assert.Equal(t, "ERR_DATA_UNAVAILABLE", errs[0]["code"], target)
	}
}

func TestReloadRequiresToken(t *testing.T) {
	s := newServer(t, &fixtureSource{}, "s3cret")

	code, _ := call(t, s, http.MethodPost, "/api/admin/reload", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := call(t, s, http.MethodPost, "/api/admin/reload", map[string]string{AdminTokenHeader: "s3cret"})
	assert.Equal(t, http.StatusOK, code)
	var notice models.SnapshotNotice
	require.NoError(t, json.Unmarshal(env.Data, &notice))
	assert.Equal(t, uint64(2), notice.Generation)
}

func TestReloadFailureIsUnavailable(t *testing.T) {
	src := &fixtureSource{}
	s := newServer(t, src, "")
	src.fail = true

	code, _ := call(t, s, http.MethodPost, "/api/admin/reload", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	// previous snapshot keeps serving
	code, _ = call(t, s, http.MethodGet, "/api/prices", nil)
	assert.Equal(t, http.StatusOK, code)
}
