package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mechanic-shop-api/internal/middleware"
    "github.com/iliyamo/mechanic-shop-api/internal/repository"
)

// dbTimeout bounds every store call made while serving a request.
const dbTimeout = 5 * time.Second

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func message(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"message": msg})
}

func invalidBody(c echo.Context) error {
    return message(c, http.StatusBadRequest, "invalid body")
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// subjectID returns the authenticated id set by the role guard.
func subjectID(c echo.Context) (uint64, error) {
    id, ok := middleware.SubjectID(c)
    if !ok {
        return 0, errors.New("missing subject in context")
    }
    return id, nil
}

// requireSelf checks that the path id names the caller's own account.
func requireSelf(c echo.Context, param string) (uint64, error) {
    sid, err := subjectID(c)
    if err != nil {
        return 0, err
    }
    id, ok := parseID(c, param)
    if !ok || id != sid {
        return 0, repository.ErrForbidden
    }
    return id, nil
}

// storeError maps repository sentinels onto statuses.  Unknown errors are
// logged and answered with a generic 500.
func storeError(c echo.Context, err error, notFound string) error {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return message(c, http.StatusNotFound, notFound)
    case errors.Is(err, repository.ErrConflict):
        return message(c, http.StatusConflict, "already exists")
    case errors.Is(err, repository.ErrForbidden):
        return message(c, http.StatusForbidden, "forbidden")
    case errors.Is(err, context.DeadlineExceeded):
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
        return message(c, http.StatusServiceUnavailable, "database timeout")
    }
    c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    return message(c, http.StatusInternalServerError, "internal error")
}

// page reads page/per_page; non-positive or unparsable values fall back to
// the defaults and per_page is capped.
func page(c echo.Context) (pageNum, perPage int) {
    pageNum, perPage = 1, defaultPerPage
    if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
        pageNum = v
    }
    if v, err := strconv.Atoi(c.QueryParam("per_page")); err == nil && v > 0 {
        perPage = v
    }
    if perPage > maxPerPage {
        perPage = maxPerPage
    }
    return pageNum, perPage
}

const (
    defaultPerPage = 10
    maxPerPage     = 100
)

// ErrorHandler renders framework errors (unknown route, bad method, bind
// failures) in the same {"message": ...} shape as handler responses.
func ErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }
    code := http.StatusInternalServerError
    msg := http.StatusText(code)
    var he *echo.HTTPError
    if errors.As(err, &he) {
        code = he.Code
        if m, ok := he.Message.(string); ok {
            msg = m
        } else {
            msg = http.StatusText(code)
        }
    } else {
        c.Logger().Error(err)
    }
    if c.Request().Method == http.MethodHead {
        err = c.NoContent(code)
    } else {
        err = message(c, code, msg)
    }
    if err != nil {
        c.Logger().Error(err)
    }
}
