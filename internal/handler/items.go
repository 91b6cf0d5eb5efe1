package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/auction-marketplace/internal/logging"
    "github.com/iliyamo/auction-marketplace/internal/middleware"
    "github.com/iliyamo/auction-marketplace/internal/model"
    "github.com/iliyamo/auction-marketplace/internal/service"
)

// ItemHandler serves listing search, detail and creation.
type ItemHandler struct {
    Listings *service.ListingEngine
    Log      logging.Logger
}

func NewItemHandler(le *service.ListingEngine, log logging.Logger) *ItemHandler {
    return &ItemHandler{Listings: le, Log: log}
}

// List handles GET /items?search=&page=&pageSize=.
func (h *ItemHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Listings.Search(ctx, c.QueryParam("search"), c.QueryParam("page"), c.QueryParam("pageSize"))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    if items == nil {
        items = []model.ItemSummary{}
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "items": items})
}

// Get handles GET /items/:id.
func (h *ItemHandler) Get(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    it, err := h.Listings.Get(ctx, c.Param("id"))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "item": it})
}

// Create handles POST /items for the principal resolved by the session
// middleware.  An unreadable body is treated as empty so it is reported
// as missing fields.
func (h *ItemHandler) Create(c echo.Context) error {
    p := middleware.PrincipalFrom(c)
    if !p.Authenticated() {
        return fail(c, http.StatusUnauthorized, "Unauthorized")
    }

    var in service.ItemInput
    if err := c.Bind(&in); err != nil {
        in = service.ItemInput{}
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    it, err := h.Listings.Create(ctx, p, in)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"ok": true, "id": it.ID})
}
