package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/marketplace/pkg/marketplace"
)

const requestIDHeader = "X-Request-ID"

// healthPaths are probe endpoints whose repeated successes are not logged.
var healthPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs requests with structured fields.
// It generates a request ID if none is provided and propagates it through
// the response header, the echo context, and the request context so that
// outgoing marketplace calls reuse it.
//
// Probe endpoints log their first success only; failures always log at WARN.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var seen sync.Map

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			req := c.Request()
			c.SetRequest(req.WithContext(marketplace.ContextWithRequestID(req.Context(), reqID)))

			err := next(c)

			path := req.URL.Path
			status := c.Response().Status
			level := slog.LevelInfo

			if _, probe := healthPaths[path]; probe {
				if status >= 200 && status < 300 {
					if _, logged := seen.LoadOrStore(path, struct{}{}); logged {
						return err
					}
				} else {
					level = slog.LevelWarn
				}
			}

			log.Log(req.Context(), level, "request",
				"method", req.Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			)

			return err
		}
	}
}
