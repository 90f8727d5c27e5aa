package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/logger"
)

// RequestLogger logs one line per request through the service logger.
// Server errors are logged at error level, client errors at warning.
func RequestLogger(log logger.ILogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			fields := []logger.Field{
				logger.String("method", c.Request().Method),
				logger.String("path", c.Path()),
				logger.Int("status", status),
				logger.Duration("latency", time.Since(start)),
				logger.String("user_id", userID(c)),
			}
			switch {
			case status >= 500:
				log.Error("request", fields...)
			case status >= 400:
				log.Warning("request", fields...)
			default:
				log.Debug("request", fields...)
			}
			return nil
		}
	}
}
