// Package router assembles the echo application from explicitly
// constructed dependencies.
package router

import (
    "database/sql"
    "strings"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/labstack/gommon/log"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/mechanic-shop-api/internal/config"
    "github.com/iliyamo/mechanic-shop-api/internal/handler"
    "github.com/iliyamo/mechanic-shop-api/internal/metrics"
    "github.com/iliyamo/mechanic-shop-api/internal/middleware"
    "github.com/iliyamo/mechanic-shop-api/internal/queue"
    "github.com/iliyamo/mechanic-shop-api/internal/repository"
    "github.com/iliyamo/mechanic-shop-api/internal/utils"
)

// Deps is everything the application needs.  Redis is optional: without it
// rate limits and the response cache are kept in process.  Nil Events and
// Metrics get a no-op publisher and a fresh registry.
type Deps struct {
    DB        *sql.DB
    Redis     *redis.Client
    Config    config.Config
    RateLimit config.RateLimitConfig
    Cache     config.CacheConfig
    Events    queue.Publisher
    Metrics   *metrics.Metrics
}

// limits hands out one limiter per route so buckets are never shared
// between routes.
type limits struct {
    cfg config.RateLimitConfig
    rdb *redis.Client
}

func (l limits) perRoute() echo.MiddlewareFunc { return middleware.NewRateLimit(l.cfg, l.rdb) }

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
    if d.Events == nil {
        d.Events = queue.NopPublisher{}
    }
    if d.Metrics == nil {
        d.Metrics = metrics.New()
    }

    e := echo.New()
    e.HideBanner = true
    e.Logger.SetLevel(LogLevel(d.Config.LogLevel))
    e.HTTPErrorHandler = handler.ErrorHandler
    e.Validator = handler.NewValidator()

    e.Pre(echomw.RemoveTrailingSlash())
    e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
        Generator: func() string { return uuid.NewString() },
    }))
    e.Use(echomw.Recover())
    e.Use(requestLogger(e.Logger))
    e.Use(middleware.NewMetrics(d.Metrics))

    tokens := utils.NewTokenIssuer(d.Config.JWTSecret, d.Config.TokenTTL)
    tickets := repository.NewTicketRepo(d.DB)
    rl := limits{cfg: d.RateLimit, rdb: d.Redis}

    e.GET("/", handler.Index)
    e.GET("/healthz", handler.Health)
    e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))

    registerCustomers(e, &handler.CustomerHandler{
        Customers:  repository.NewCustomerRepo(d.DB),
        Tickets:    tickets,
        Tokens:     tokens,
        Metrics:    d.Metrics,
        BcryptCost: d.Config.BcryptCost,
    }, tokens, rl)
    registerMechanics(e, &handler.MechanicHandler{
        Mechanics:  repository.NewMechanicRepo(d.DB),
        Tokens:     tokens,
        Metrics:    d.Metrics,
        BcryptCost: d.Config.BcryptCost,
    }, tokens, rl)
    registerInventory(e, &handler.InventoryHandler{
        Parts:   repository.NewInventoryRepo(d.DB),
        Tickets: tickets,
    }, tokens, rl, middleware.NewCache(d.Cache, middleware.NewCacheStore(d.Cache, d.Redis)))
    registerTickets(e, &handler.TicketHandler{
        Tickets: tickets,
        Events:  d.Events,
        Metrics: d.Metrics,
    }, tokens, rl)

    return e
}

func requestLogger(l echo.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogError:     true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            j := log.JSON{
                "id":      v.RequestID,
                "method":  v.Method,
                "uri":     v.URI,
                "status":  v.Status,
                "latency": v.Latency.String(),
            }
            if v.Error != nil {
                j["error"] = v.Error.Error()
            }
            l.Infoj(j)
            return nil
        },
    })
}

// LogLevel maps a LOG_LEVEL value onto gommon levels; unknown values mean
// info.
func LogLevel(s string) log.Lvl {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "debug":
        return log.DEBUG
    case "warn", "warning":
        return log.WARN
    case "error":
        return log.ERROR
    case "off":
        return log.OFF
    }
    return log.INFO
}
