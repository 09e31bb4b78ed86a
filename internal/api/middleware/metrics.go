// Package middleware provides Echo middleware for the marketplace gateway.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/marketplace/internal/api/handlers"
	"github.com/donaldgifford/marketplace/internal/command"
	"github.com/donaldgifford/marketplace/internal/metrics"
)

// runCommandRoute is the echo form of POST /v1/commands/{name}.
const runCommandRoute = "/v1/commands/:name"

// unregisteredCommand labels run-command calls for names outside the
// registry, keeping the command label bounded.
const unregisteredCommand = "unregistered"

// metricsSkipPaths are excluded from the request histogram and counter.
var metricsSkipPaths = map[string]struct{}{
	"/metrics": {},
	"/healthz": {},
	"/readyz":  {},
}

var healthGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// CommandLookup resolves registered command names.
type CommandLookup interface {
	Lookup(name string) (*command.Descriptor, bool)
}

// Metrics returns Echo middleware that records request duration and status
// labelled by route template, so /v1/commands/:name is one series per
// status rather than one per command. Run-command calls are also counted
// per command and envelope outcome, with unregistered names sharing one
// label. Probe paths only update their up/down gauges.
func Metrics(commands CommandLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			if _, skip := metricsSkipPaths[path]; skip {
				err := next(c)
				updateHealthGauge(path, c.Response().Status)
				return err
			}

			start := time.Now()

			err := next(c)

			code := c.Response().Status
			status := strconv.Itoa(code)
			method := c.Request().Method

			metrics.HTTPRequestDuration.
				WithLabelValues(method, path, status).
				Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.
				WithLabelValues(method, path, status).
				Inc()

			if path == runCommandRoute && method == http.MethodPost {
				metrics.GatewayCommandsTotal.
					WithLabelValues(commandLabel(commands, c.Param("name")), handlers.OutcomeForStatus(code)).
					Inc()
			}

			return err
		}
	}
}

func commandLabel(commands CommandLookup, name string) string {
	if commands == nil {
		return unregisteredCommand
	}
	if _, ok := commands.Lookup(name); !ok {
		return unregisteredCommand
	}
	return name
}

func updateHealthGauge(path string, status int) {
	gauge, ok := healthGauges[path]
	if !ok {
		return
	}

	if status >= 200 && status < 300 {
		gauge.Set(1)
	} else {
		gauge.Set(0)
	}
}
