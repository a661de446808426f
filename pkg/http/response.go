package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Respond writes data in the envelope. status is used for both the HTTP and body status.
func Respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

func OK(c echo.Context, data interface{}) error {
	return Respond(c, http.StatusOK, data)
}

// PageOf writes a series tail.
func PageOf(c echo.Context, rows interface{}, total int64, limit int) error {
	return OK(c, &Page{Rows: rows, Total: total, Limit: limit})
}

// Invalid writes a 400 listing every rejected field.
func Invalid(c echo.Context, errs []ValidationError) error {
	return c.JSON(http.StatusBadRequest, Envelope{
		Status:  http.StatusBadRequest,
		Message: http.StatusText(http.StatusBadRequest),
		Errors:  errs,
	})
}

// Fail writes err. Anything that is not an *AppError becomes an opaque 500.
func Fail(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewAppError(CodeInternal, "something went wrong")
	}
	return c.JSON(appErr.Status, Envelope{
		Status:  appErr.Status,
		Message: http.StatusText(appErr.Status),
		Errors:  []*AppError{appErr},
	})
}

// errorHandler renders router and middleware errors in the envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := CodeInternal
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			code = CodeNotFound
		case http.StatusBadRequest:
			code = CodeBind
		}
		appErr := NewAppError(code, http.StatusText(he.Code))
		appErr.Status = he.Code
		err = appErr
	}
	_ = Fail(c, err)
}
