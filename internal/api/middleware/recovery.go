package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/marketplace/internal/command"
)

// Recovery returns Echo middleware that recovers from panics, logs the stack
// trace, and answers 500 with an unknown_error envelope so gateway clients
// always receive the same body shape.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					buf := make([]byte, 4096)
					n := runtime.Stack(buf, false)

					log.Error("panic recovered",
						"error", fmt.Sprint(r),
						"method", c.Request().Method,
						"path", c.Request().URL.Path,
						"request_id", c.Get("request_id"),
						"stack", string(buf[:n]),
					)

					err = c.JSON(http.StatusInternalServerError, command.Envelope{
						"status":     command.StatusError,
						"error":      "internal server error",
						"error_type": string(command.ErrTypeUnknown),
					})
				}
			}()
			return next(c)
		}
	}
}
