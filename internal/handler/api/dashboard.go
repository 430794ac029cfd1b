package api

import (
	"crypto/subtle"
	"errors"

	models "OilPulse/internal/domain/models"
	"OilPulse/internal/services/query"
	"OilPulse/internal/usecase"
	xhttp "OilPulse/pkg/http"
	xlogger "OilPulse/pkg/logger"
	"OilPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// AdminTokenHeader carries the token guarding admin routes.
const AdminTokenHeader = "X-Admin-Token"

// DashboardHandler serves the dashboard API over Echo.
type DashboardHandler struct {
	logger     *xlogger.Logger
	uc         *usecase.DashboardUseCase
	adminToken string
}

// NewDashboardHandler creates the handler. An empty adminToken leaves the reload
// route open.
func NewDashboardHandler(logger *xlogger.Logger, uc *usecase.DashboardUseCase, adminToken string) *DashboardHandler {
	return &DashboardHandler{logger: logger, uc: uc, adminToken: adminToken}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/prices", h.Prices)
	g.GET("/events", h.Events)
	g.GET("/events/closest", h.ClosestEvents)
	g.GET("/events/timeline", h.Timeline)
	g.GET("/events/breakdown", h.Breakdown)
	g.GET("/changepoint", h.Changepoint)
	g.GET("/statistics", h.Statistics)
	g.GET("/statistics/regimes", h.Regimes)
	g.GET("/event-types", h.EventTypes)
	g.GET("/date-range", h.DateRange)
	g.GET("/returns/histogram", h.Histogram)
	g.POST("/admin/reload", h.Reload)
}

func (h *DashboardHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.uc.Health())
}

func (h *DashboardHandler) Prices(c echo.Context) error {
	req := &models.RangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	r, err := parseRange(req)
	if err != nil {
		return h.fail(c, "prices", err)
	}

	res, err := h.uc.Prices(c.Request().Context(), r)
	if err != nil {
		return h.fail(c, "prices", err)
	}
	return xhttp.ListResponse(c, res)
}

func (h *DashboardHandler) Events(c echo.Context) error {
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	f, err := parseFilter(req)
	if err != nil {
		return h.fail(c, "events", err)
	}

	res, err := h.uc.Events(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, "events", err)
	}
	return xhttp.ListResponse(c, res)
}

func (h *DashboardHandler) ClosestEvents(c echo.Context) error {
	req := &models.ClosestEventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	f, err := parseFilter(&req.EventsRequest)
	if err != nil {
		return h.fail(c, "closest events", err)
	}

	res, err := h.uc.Closest(c.Request().Context(), f, req.Limit)
	if err != nil {
		return h.fail(c, "closest events", err)
	}
	return xhttp.ListResponse(c, res)
}

func (h *DashboardHandler) Timeline(c echo.Context) error {
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	f, err := parseFilter(req)
	if err != nil {
		return h.fail(c, "timeline", err)
	}

	res, err := h.uc.Timeline(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, "timeline", err)
	}
	return xhttp.ListResponse(c, res)
}

func (h *DashboardHandler) Breakdown(c echo.Context) error {
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	f, err := parseFilter(req)
	if err != nil {
		return h.fail(c, "breakdown", err)
	}

	res, err := h.uc.Breakdown(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, "breakdown", err)
	}
	return xhttp.ListResponse(c, res)
}

func (h *DashboardHandler) Changepoint(c echo.Context) error {
	res, err := h.uc.Changepoint(c.Request().Context())
	if err != nil {
		return h.fail(c, "changepoint", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Statistics(c echo.Context) error {
	req := &models.RangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	r, err := parseRange(req)
	if err != nil {
		return h.fail(c, "statistics", err)
	}

	res, err := h.uc.Statistics(c.Request().Context(), r)
	if err != nil {
		return h.fail(c, "statistics", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Regimes(c echo.Context) error {
	req := &models.RangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	r, err := parseRange(req)
	if err != nil {
		return h.fail(c, "regimes", err)
	}

	res, err := h.uc.Regimes(c.Request().Context(), r)
	if err != nil {
		return h.fail(c, "regimes", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) EventTypes(c echo.Context) error {
	res, err := h.uc.EventTypes(c.Request().Context())
	if err != nil {
		return h.fail(c, "event types", err)
	}
	return xhttp.ListResponse(c, res)
}

func (h *DashboardHandler) DateRange(c echo.Context) error {
	res, err := h.uc.DateRange(c.Request().Context())
	if err != nil {
		return h.fail(c, "date range", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Histogram(c echo.Context) error {
	req := &models.HistogramRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	r, err := parseRange(&req.RangeRequest)
	if err != nil {
		return h.fail(c, "histogram", err)
	}

	res, err := h.uc.Histogram(c.Request().Context(), r, req.Bins)
	if err != nil {
		return h.fail(c, "histogram", err)
	}
	return xhttp.ListResponse(c, res)
}

func (h *DashboardHandler) Reload(c echo.Context) error {
	if h.adminToken != "" {
		got := c.Request().Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.adminToken)) != 1 {
			return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("admin token required"))
		}
	}

	res, err := h.uc.Reload(c.Request().Context())
	if err != nil {
		return h.fail(c, "reload", err)
	}
	h.logger.Info("Reload requested over HTTP", xlogger.Uint64("generation", res.Generation))
	return xhttp.SuccessResponse(c, res)
}

// fail maps domain errors onto the response envelope.
func (h *DashboardHandler) fail(c echo.Context, op string, err error) error {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return xhttp.AppErrorResponse(c, appErr)
	case errors.Is(err, models.ErrDataUnavailable):
		h.logger.Warn(op+" unavailable", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError(err.Error()).WithError(err))
	case errors.Is(err, models.ErrInvalidArgument):
		return xhttp.AppErrorResponse(c, xhttp.InvalidArgumentError("", err.Error()).WithError(err))
	default:
		h.logger.Error(op+" usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("Something went wrong").WithError(err))
	}
}

func parseRange(req *models.RangeRequest) (query.DateRange, error) {
	var r query.DateRange
	if req.StartDate != "" {
		d, err := models.ParseDate(req.StartDate)
		if err != nil {
			return r, xhttp.InvalidArgumentError("start_date", err.Error()).WithError(err)
		}
		r.From = &d
	}
	if req.EndDate != "" {
		d, err := models.ParseDate(req.EndDate)
		if err != nil {
			return r, xhttp.InvalidArgumentError("end_date", err.Error()).WithError(err)
		}
		r.To = &d
	}
	return r, nil
}

func parseFilter(req *models.EventsRequest) (usecase.EventFilter, error) {
	r, err := parseRange(&req.RangeRequest)
	if err != nil {
		return usecase.EventFilter{}, err
	}
	return usecase.EventFilter{Range: r, Types: util.SplitList(req.EventType...)}, nil
}
