// Package handler contains the echo handlers for the JSON API.  Every
// response body is an object with an "ok" field; failures carry a
// human-readable "error" string.
package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/auction-marketplace/internal/logging"
    "github.com/iliyamo/auction-marketplace/internal/service"
)

func fail(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"ok": false, "error": msg})
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
    switch {
    case errors.Is(err, service.ErrInvalidInput):
        return http.StatusBadRequest
    case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthorized):
        return http.StatusUnauthorized
    case errors.Is(err, service.ErrConflict):
        return http.StatusConflict
    case errors.Is(err, service.ErrNotFound):
        return http.StatusNotFound
    default:
        return http.StatusInternalServerError
    }
}

// writeError renders err using statusFor.  Internal failures are logged
// and returned with their message so operators can correlate them.
func writeError(c echo.Context, log logging.Logger, err error) error {
    status := statusFor(err)
    if status == http.StatusInternalServerError {
        log.Error(c.Request().Context(), "request failed",
            "method", c.Request().Method,
            "path", c.Path(),
            "request_id", c.Response().Header().Get(echo.HeaderXRequestID),
            "error", err)
    }
    return fail(c, status, err.Error())
}

// ErrorHandler replaces echo's default so router-level failures (unknown
// route, wrong method, recovered panics) keep the {ok:false,error} shape.
func ErrorHandler(log logging.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        status := http.StatusInternalServerError
        msg := err.Error()
        var he *echo.HTTPError
        if errors.As(err, &he) {
            status = he.Code
            if m, ok := he.Message.(string); ok {
                msg = m
            } else {
                msg = http.StatusText(status)
            }
        }
        if status >= http.StatusInternalServerError {
            log.Error(c.Request().Context(), "unhandled error", "path", c.Request().URL.Path, "error", err)
        }
        var werr error
        if c.Request().Method == http.MethodHead {
            werr = c.NoContent(status)
        } else {
            werr = fail(c, status, msg)
        }
        if werr != nil {
            log.Error(c.Request().Context(), "write error response", "error", werr)
        }
    }
}
