package http

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the envelope with the given status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Success: statusCode < http.StatusBadRequest,
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// ListResponse writes a collection with its count. A nil slice is written as [].
func ListResponse(c echo.Context, rows interface{}) error {
	n := 0
	if v := reflect.ValueOf(rows); v.Kind() == reflect.Slice {
		n = v.Len()
		if v.IsNil() {
			rows = []struct{}{}
		}
	}
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Count:   &n,
		Data:    rows,
	})
}

// SuccessResponse writes success response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes bad request error.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// InternalServerErrorResponse writes internal server error.
func InternalServerErrorResponse(c echo.Context) error {
	return DataResponse(c, http.StatusInternalServerError, []*AppError{InternalError("Something went wrong")})
}

// AppErrorResponse writes application error response.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return InternalServerErrorResponse(c)
}

// HTTPErrorHandler renders errors escaping handlers, including unknown routes,
// with the same envelope as handler responses.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		var appErr *AppError
		switch he.Code {
		case http.StatusNotFound:
			appErr = NotFoundError(msg)
		case http.StatusMethodNotAllowed:
			appErr = NewAppError("ERR_METHOD_NOT_ALLOWED", "", msg, he.Code)
		case http.StatusTooManyRequests:
			appErr = TooManyRequestsError(msg)
		case http.StatusInternalServerError:
			appErr = InternalError(msg)
		default:
			appErr = NewAppError("ERR_HTTP", "", msg, he.Code)
		}
		_ = DataResponse(c, he.Code, []*AppError{appErr})
		return
	}
	_ = AppErrorResponse(c, err)
}
