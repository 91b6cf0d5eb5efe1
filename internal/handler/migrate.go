package handler

import (
    "context"
    "crypto/subtle"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/auction-marketplace/internal/logging"
)

// MigrateTokenHeader carries the operator token for POST /migrate.
const MigrateTokenHeader = "X-Migrate-Token"

// Migrator applies pending schema migrations and returns their versions.
type Migrator interface {
    Up(ctx context.Context) ([]int64, error)
}

// MigrateHandler runs the schema migrations on demand.  The request is
// allowed when AllowAnonymous is set or the header matches a non-empty
// Token.
type MigrateHandler struct {
    Migrator       Migrator
    Token          string
    AllowAnonymous bool
    Log            logging.Logger
}

func (h *MigrateHandler) authorized(header string) bool {
    if h.AllowAnonymous {
        return true
    }
    if h.Token == "" || header == "" {
        return false
    }
    return subtle.ConstantTimeCompare([]byte(header), []byte(h.Token)) == 1
}

// Migrate handles POST /migrate.
func (h *MigrateHandler) Migrate(c echo.Context) error {
    if !h.authorized(c.Request().Header.Get(MigrateTokenHeader)) {
        return fail(c, http.StatusForbidden, "Forbidden")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), time.Minute)
    defer cancel()

    applied, err := h.Migrator.Up(ctx)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    if applied == nil {
        applied = []int64{}
    }
    h.Log.Info(ctx, "migrations applied", "versions", applied)
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "applied": applied})
}
