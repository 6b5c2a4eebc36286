package middleware

import (
	"time"

	applogger "FundFlow/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs each request with method, route, status and latency.
func RequestLogging(log *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			if log != nil {
				log.Debug("http request",
					applogger.String("method", c.Request().Method),
					applogger.String("uri", c.Request().RequestURI),
					applogger.String("remote", c.Request().RemoteAddr),
					applogger.Int("status", c.Response().Status),
					applogger.Duration("latency", time.Since(start)),
				)
			}

			return err
		}
	}
}
