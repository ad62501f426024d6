package middleware

// identity.go holds the accessors for what JWTAuth stored in the Echo context.
// Handlers use the exported ones; the rate limiter keys anonymous callers as
// "anon".

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-cinema/internal/model"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxUserID).(uint64)
    return id, ok && id != 0
}

// Group returns the authenticated user's group.
func Group(c echo.Context) (model.GroupName, bool) {
    g, ok := c.Get(ctxGroup).(string)
    return model.GroupName(g), ok && g != ""
}

func currentUserID(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
