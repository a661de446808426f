package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "RegimeWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover logs a handler panic with its stack and hands echo a 500 to render.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				l.Error("http handler panic",
					applogger.String("panic", fmt.Sprint(r)),
					applogger.String("route", c.Path()),
					applogger.String("stack", string(debug.Stack())),
				)
				err = echo.NewHTTPError(http.StatusInternalServerError)
			}()
			return next(c)
		}
	}
}
