package middleware

// identity.go carries the resolved principal through the echo context.
// Handlers read it once with PrincipalFrom and pass it on explicitly; no
// code below the handler looks at cookies.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/auction-marketplace/internal/service"
)

const principalKey = "principal"

// SetPrincipal stores p on the request context.
func SetPrincipal(c echo.Context, p service.Principal) {
    c.Set(principalKey, p)
}

// PrincipalFrom returns the principal stored by Session, or
// service.Anonymous when none was stored.
func PrincipalFrom(c echo.Context) service.Principal {
    if p, ok := c.Get(principalKey).(service.Principal); ok {
        return p
    }
    return service.Anonymous
}
