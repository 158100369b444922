package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health is a liveness check for load balancers.  It returns plain "ok".
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Index greets callers of the root path.
func Index(c echo.Context) error {
    return message(c, http.StatusOK, "Welcome to the Mechanic Shop API")
}
