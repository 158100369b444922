package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mechanic-shop-api/internal/handler"
    "github.com/iliyamo/mechanic-shop-api/internal/middleware"
    "github.com/iliyamo/mechanic-shop-api/internal/utils"
)

// registerInventory mounts /inventory.  The listing is public and cached;
// every write needs a mechanic token.  On create the guard runs before the
// limiter so anonymous callers never consume a bucket.
func registerInventory(e *echo.Echo, h *handler.InventoryHandler, v middleware.TokenValidator, rl limits, cache echo.MiddlewareFunc) {
    g := e.Group("/inventory")
    mechanic := middleware.RequireRole(v, utils.RoleMechanic)

    g.GET("", h.List, cache)
    g.POST("", h.Create, mechanic, rl.perRoute())
    g.PUT("/:id", h.Update, mechanic)
    g.DELETE("/:id", h.Delete, mechanic)
    g.POST("/add-part/:ticketId", h.AttachToTicket, mechanic)
}
