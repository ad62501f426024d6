package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-cinema/internal/model"
)

// RequireGroup returns a middleware function that enforces that the
// authenticated user belongs to one of the given groups.  It assumes JWTAuth
// ran first and stored the group name under "group"; anything else is
// answered with 403 Forbidden.
func RequireGroup(groups ...model.GroupName) echo.MiddlewareFunc {
    allowed := make(map[model.GroupName]bool, len(groups))
    for _, g := range groups {
        allowed[g] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            group, ok := Group(c)
            if !ok || !allowed[group] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "You do not have permission to perform this action."})
            }
            return next(c)
        }
    }
}
