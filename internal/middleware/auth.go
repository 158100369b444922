package middleware // middleware provides shared request processing for handlers

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mechanic-shop-api/internal/utils"
)

// Context keys set by RequireRole.
const (
    ctxSubjectID = "subject_id"
    ctxRole      = "role"
)

// TokenValidator verifies a raw bearer token.
type TokenValidator interface {
    Validate(raw string) (utils.Claims, error)
}

// RequireRole returns a middleware that admits only requests carrying a
// valid token whose role claim equals role.  The Authorization header is
// split on its first space and the remainder is taken verbatim as the
// token; the scheme word is not inspected.  Outcomes:
//   missing header, no space or empty token – 401 Missing token
//   token fails validation                  – 401 Invalid or expired token
//   role claim differs                      – 403 Unauthorized role
// On success the subject id is available to handlers via SubjectID.
func RequireRole(v TokenValidator, role string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Missing token"})
            }
            claims, err := v.Validate(raw)
            if err != nil {
                c.Logger().Debugf("auth: rejected token: %v", err)
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid or expired token"})
            }
            if claims.Role != role {
                return c.JSON(http.StatusForbidden, echo.Map{"message": "Unauthorized role"})
            }
            c.Set(ctxSubjectID, claims.SubjectID)
            c.Set(ctxRole, claims.Role)
            return next(c)
        }
    }
}

func bearerToken(header string) (string, bool) {
    _, token, found := strings.Cut(header, " ")
    if !found || token == "" {
        return "", false
    }
    return token, true
}

// SubjectID returns the authenticated subject id stored by RequireRole, or
// false on routes that are not guarded.
func SubjectID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxSubjectID).(uint64)
    return id, ok && id != 0
}

// identity returns a rate-limit identity for the caller: the subject id
// when a guard already ran, "anon" otherwise.
func identity(c echo.Context) string {
    if id, ok := SubjectID(c); ok {
        role, _ := c.Get(ctxRole).(string)
        return role + ":" + strconv.FormatUint(id, 10)
    }
    return "anon"
}
