package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mechanic-shop-api/internal/handler"
    "github.com/iliyamo/mechanic-shop-api/internal/middleware"
    "github.com/iliyamo/mechanic-shop-api/internal/utils"
)

// registerTickets mounts /service-tickets.  Customers open tickets and edit
// the rosters of their own; any mechanic may change a status.
func registerTickets(e *echo.Echo, h *handler.TicketHandler, v middleware.TokenValidator, rl limits) {
    g := e.Group("/service-tickets")
    customer := middleware.RequireRole(v, utils.RoleCustomer)
    mechanic := middleware.RequireRole(v, utils.RoleMechanic)

    g.GET("", h.List)
    g.POST("", h.Create, customer)
    g.GET("/my-tickets", h.MyTickets, customer, rl.perRoute())
    g.PUT("/:id/edit", h.EditMechanics, customer)
    g.PUT("/:id/add-part", h.AddParts, customer)
    g.PUT("/:id/update-status", h.UpdateStatus, mechanic)
}
