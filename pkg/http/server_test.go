package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"OilPulse/pkg/http/middleware"
	applogger "OilPulse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rangeQuery struct {
	StartDate string `query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Limit     int    `query:"limit" default:"5" validate:"gte=1,lte=10"`
}

type testHandler struct{}

func (testHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/items", func(c echo.Context) error {
		req := &rangeQuery{}
		if verr := ReadAndValidateRequest(c, req); verr != nil {
			return BadRequestResponse(c, verr)
		}
		items := make([]int, req.Limit)
		return ListResponse(c, items)
	})
	e.GET("/api/nil", func(c echo.Context) error {
		var rows []string
		return ListResponse(c, rows)
	})
	e.GET("/api/down", func(c echo.Context) error {
		return AppErrorResponse(c, ServiceUnavailableError("artifacts have not been loaded"))
	})
	e.GET("/api/panic", func(c echo.Context) error {
		panic("boom")
	})
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func newTestServer(opts ...ServerOption) *Server {
	return NewServer(applogger.Nop(), []Handler{testHandler{}}, opts...)
}

func do(t *testing.T, s *Server, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestListResponseEnvelope(t *testing.T) {
	rec, body := do(t, newTestServer(), http.MethodGet, "/api/items")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 5, body["count"])
	assert.Len(t, body["data"], 5)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestListResponseNilSliceIsEmptyArray(t *testing.T) {
	rec, _ := do(t, newTestServer(), http.MethodGet, "/api/nil")
	assert.JSONEq(t, `{"success":true,"status":200,"message":"OK","count":0,"data":[]}`, rec.Body.String())
}

func TestMalformedDateIsInvalidArgument(t *testing.T) {
	rec, body := do(t, newTestServer(), http.MethodGet, "/api/items?start_date=2020-13-45")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	errs := body["data"].([]any)
	require.Len(t, errs, 1)
	first := errs[0].(map[string]any)
	assert.Equal(t, "ERR_INVALID_ARGUMENT", first["code"])
	assert.Equal(t, "start_date", first["field"])
}

func TestBindErrorIsInvalidArgument(t *testing.T) {
	rec, body := do(t, newTestServer(), http.MethodGet, "/api/items?limit=lots")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	first := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "ERR_INVALID_ARGUMENT", first["code"])
}

func TestServiceUnavailable(t *testing.T) {
	rec, body := do(t, newTestServer(), http.MethodGet, "/api/down")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	first := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "ERR_DATA_UNAVAILABLE", first["code"])
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	rec, body := do(t, newTestServer(), http.MethodGet, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.EqualValues(t, 404, body["status"])
}

func TestPanicIsRecovered(t *testing.T) {
	rec, body := do(t, newTestServer(), http.MethodGet, "/api/panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(WithRateLimiter(denyAll{}))
	rec, body := do(t, s, http.MethodGet, "/api/items")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	first := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "ERR_RATE_LIMITED", first["code"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodOptions, "/api/items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDisabled(t *testing.T) {
	s := newTestServer(WithCORS(nil))
	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

var _ middleware.Allower = denyAll{}
