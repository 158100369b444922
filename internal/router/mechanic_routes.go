package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mechanic-shop-api/internal/handler"
    "github.com/iliyamo/mechanic-shop-api/internal/middleware"
    "github.com/iliyamo/mechanic-shop-api/internal/utils"
)

// registerMechanics mounts /mechanics.  Account changes are limited to the
// mechanic's own id, checked in the handler.
func registerMechanics(e *echo.Echo, h *handler.MechanicHandler, v middleware.TokenValidator, rl limits) {
    g := e.Group("/mechanics")
    mechanic := middleware.RequireRole(v, utils.RoleMechanic)

    g.POST("/register", h.Register)
    g.POST("/login", h.Login, rl.perRoute())
    g.GET("/protected", h.Protected, mechanic)
    g.GET("/by-tickets", h.ByTickets)
    g.GET("", h.List)
    g.PUT("/:id", h.Update, mechanic)
    g.DELETE("/:id", h.Delete, mechanic)
}
