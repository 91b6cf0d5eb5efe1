package middleware

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/auction-marketplace/internal/logging"
    "github.com/iliyamo/auction-marketplace/internal/service"
)

// PrincipalResolver turns a Cookie header into a principal.
// *service.SessionManager implements it.
type PrincipalResolver interface {
    CurrentUser(ctx context.Context, cookieHeader string) (service.Principal, error)
}

// Session resolves the session cookie on every request and stores the
// resulting principal (possibly anonymous) in the context.  It never
// rejects a request for being anonymous; handlers decide that.  A store
// failure is answered with 500.
func Session(r PrincipalResolver, log logging.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()

            p, err := r.CurrentUser(ctx, c.Request().Header.Get(echo.HeaderCookie))
            if err != nil {
                log.Error(ctx, "resolve session failed", "error", err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "error": err.Error()})
            }
            SetPrincipal(c, p)
            return next(c)
        }
    }
}
