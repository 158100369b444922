package middleware

import (
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mechanic-shop-api/internal/metrics"
)

// NewMetrics records request count and latency labelled by the matched route
// template, not the raw path, so ids do not explode cardinality.
func NewMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)

            status := c.Response().Status
            if err != nil {
                // the error handler has not run yet
                if he, ok := err.(*echo.HTTPError); ok {
                    status = he.Code
                } else if !c.Response().Committed {
                    status = 500
                }
            }
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            m.ObserveRequest(c.Request().Method, route, status, time.Since(start))
            return err
        }
    }
}
