// Package router wires handlers and middleware onto an echo instance.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/auction-marketplace/internal/handler"
)

// Deps holds everything RegisterRoutes mounts.  DBHealth and Migrate may
// be nil, in which case their routes are not registered.
type Deps struct {
    Auth     *handler.AuthHandler
    Items    *handler.ItemHandler
    Session  echo.MiddlewareFunc
    Cache    echo.MiddlewareFunc
    DBHealth *handler.DBHealth
    Migrate  *handler.MigrateHandler
}

// RegisterRoutes mounts the public JSON API.
func RegisterRoutes(e *echo.Echo, d Deps) {
    e.GET("/health", handler.Health)
    if d.DBHealth != nil {
        e.GET("/db-health", d.DBHealth.Handle)
    }
    if d.Migrate != nil {
        e.POST("/migrate", d.Migrate.Migrate)
    }

    auth := e.Group("/auth")
    auth.POST("/signup", d.Auth.Signup)
    auth.POST("/login", d.Auth.Login)
    auth.POST("/logout", d.Auth.Logout)

    cache, session := orPassthrough(d.Cache), orPassthrough(d.Session)
    // responses under the cache never depend on the caller's session
    e.GET("/items", d.Items.List, cache)
    e.GET("/items/:id", d.Items.Get, cache)
    e.POST("/items", d.Items.Create, session)
}

func orPassthrough(m echo.MiddlewareFunc) echo.MiddlewareFunc {
    if m != nil {
        return m
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
}
