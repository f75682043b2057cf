package middleware

import (
	"time"

	applogger "MarketIntel/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs each request at debug level, server errors at warn.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			fields := []applogger.Field{
				applogger.String("method", c.Request().Method),
				applogger.String("route", c.Path()),
				applogger.String("query", c.QueryString()),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", status),
				applogger.Duration("duration_ms", time.Since(start)),
			}
			if status >= 500 {
				l.Warn("http request failed", fields...)
				return err
			}
			l.Debug("http request", fields...)
			return err
		}
	}
}
