package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mechanic-shop-api/internal/handler"
    "github.com/iliyamo/mechanic-shop-api/internal/middleware"
    "github.com/iliyamo/mechanic-shop-api/internal/utils"
)

// registerCustomers mounts /customers.  Registration, login and the listing
// are public; the rest requires a customer token.
func registerCustomers(e *echo.Echo, h *handler.CustomerHandler, v middleware.TokenValidator, rl limits) {
    g := e.Group("/customers")
    customer := middleware.RequireRole(v, utils.RoleCustomer)

    g.POST("/register", h.Register)
    g.POST("/login", h.Login, rl.perRoute())
    g.GET("", h.List)
    g.GET("/:username/tickets", h.TicketsByUsername, customer)
    g.PUT("/:id", h.Update, customer)
    g.DELETE("/:id", h.Delete, customer)
}
