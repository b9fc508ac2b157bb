package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader is echoed back to the client for correlation.
const RequestIDHeader = "X-Request-Id"

// RequestLogger attaches a request id to every request and logs method,
// path, status and duration through slog.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Set("request_id", requestID)
			c.Response().Header().Set(RequestIDHeader, requestID)

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			attrs := []any{
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				logger.Error("request failed", append(attrs, "error", err)...)
			} else {
				logger.Info("request", attrs...)
			}
			return err
		}
	}
}

// RequestID returns the id the logger middleware assigned, or "" outside it.
func RequestID(c echo.Context) string {
	id, _ := c.Get("request_id").(string)
	return id
}
