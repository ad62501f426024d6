package middleware

import (
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-cinema/internal/logger"
)

// RequestLogger logs one line per request through the application logger:
// method, path, status and latency. Server errors are logged at ERROR.
func RequestLogger() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let echo's error handler pick the status before it is logged
                c.Error(err)
            }

            req, res := c.Request(), c.Response()
            latency := time.Since(start).Round(time.Microsecond)
            if res.Status >= 500 {
                logger.Errorf("%s %s %d %s err=%v", req.Method, req.URL.RequestURI(), res.Status, latency, err)
            } else {
                logger.Infof("%s %s %d %s", req.Method, req.URL.RequestURI(), res.Status, latency)
            }
            return nil
        }
    }
}
