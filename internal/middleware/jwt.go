package middleware

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-cinema/internal/utils"
)

// Context keys populated by JWTAuth.
const (
    ctxUserID = "user_id"
    ctxGroup  = "group"
)

// AccessTokenParser verifies an access token.  *utils.JWTManager satisfies it.
type AccessTokenParser interface {
    ParseAccessToken(raw string) (*utils.Claims, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the user id (uint64) and group name (string) in the request context
// under "user_id" and "group".  Refresh tokens are signed with a different
// secret and are rejected here.
func JWTAuth(tokens AccessTokenParser) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if auth == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authorization header is missing."})
            }
            // A valid header is "Bearer " followed by the JWT.
            raw, ok := strings.CutPrefix(auth, "Bearer ")
            if !ok || strings.TrimSpace(raw) == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid Authorization header format. Expected 'Bearer <token>'."})
            }

            claims, err := tokens.ParseAccessToken(strings.TrimSpace(raw))
            if errors.Is(err, utils.ErrTokenExpired) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token has expired."})
            }
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token."})
            }

            uid, err := claims.UserID()
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token."})
            }
            c.Set(ctxUserID, uid)
            c.Set(ctxGroup, claims.Group)
            return next(c)
        }
    }
}
