package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/auction-marketplace/internal/database"
)

// Health reports that the process is serving.  It does not touch the
// database.
func Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "ts": time.Now().UnixMilli()})
}

// DBHealth asks the database for its clock.
type DBHealth struct {
    DB *sql.DB
}

func (h DBHealth) Handle(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
    defer cancel()

    now, err := database.Now(ctx, h.DB)
    if err != nil {
        return fail(c, http.StatusInternalServerError, err.Error())
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "now": now})
}
