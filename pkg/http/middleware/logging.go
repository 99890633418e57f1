package middleware

import (
	"time"

	applogger "FXRisk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs every request at debug level and anything at or above
// slowThreshold as a warning. 5xx responses are logged as errors.
func RequestLogging(l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			if l == nil {
				return nil
			}
			req := c.Request()
			status := c.Response().Status
			latency := time.Since(start)
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("route", routeLabel(c)),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote_ip", c.RealIP()),
				applogger.Int("status", status),
				applogger.Duration("duration_ms", latency),
				applogger.Int64("bytes", c.Response().Size),
			}
			switch {
			case status >= 500:
				if err != nil {
					fields = append(fields, applogger.Error(err))
				}
				l.Error("http request failed", fields...)
			case slowThreshold > 0 && latency >= slowThreshold:
				l.Warn("http request slow", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
