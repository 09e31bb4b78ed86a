package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/donaldgifford/marketplace/internal/api/middleware"
	"github.com/donaldgifford/marketplace/internal/command"
	"github.com/donaldgifford/marketplace/internal/metrics"
)

func TestMetricsMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		route      string
		target     string
		handler    echo.HandlerFunc
		wantStatus int
	}{
		{
			name:   "records describe",
			method: http.MethodGet,
			route:  "/v1/commands",
			target: "/v1/commands",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "labels by route template",
			method: http.MethodPost,
			route:  "/v1/commands/:name",
			target: "/v1/commands/list-stores",
			handler: func(c echo.Context) error {
				return c.NoContent(http.StatusBadGateway)
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:   "records unknown command",
			method: http.MethodPost,
			route:  "/v1/commands/:name",
			target: "/v1/commands/nope",
			handler: func(c echo.Context) error {
				return c.NoContent(http.StatusNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(mw.Metrics(command.Builtin()))
			e.Add(tt.method, tt.route, tt.handler)

			req := httptest.NewRequest(tt.method, tt.target, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			statusStr := strconv.Itoa(tt.wantStatus)

			counter, err := metrics.HTTPRequestsTotal.GetMetricWithLabelValues(
				tt.method, tt.route, statusStr,
			)
			require.NoError(t, err)

			m := &io_prometheus_client.Metric{}
			require.NoError(t, counter.Write(m))
			assert.Greater(t, m.GetCounter().GetValue(), float64(0))

			observer, err := metrics.HTTPRequestDuration.GetMetricWithLabelValues(
				tt.method, tt.route, statusStr,
			)
			require.NoError(t, err)

			hm := &io_prometheus_client.Metric{}
			require.NoError(t, observer.(prometheus.Metric).Write(hm))
			assert.Positive(t, hm.GetHistogram().GetSampleCount())
		})
	}
}

func TestMetricsMiddleware_HealthGauges(t *testing.T) {
	e := echo.New()
	e.Use(mw.Metrics(command.Builtin()))

	ready := true
	e.GET("/readyz", func(c echo.Context) error {
		if ready {
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	})

	serve := func() {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	}

	serve()
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ReadyzUp), 0)

	ready = false
	serve()
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.ReadyzUp), 0)
}

func TestMetricsMiddleware_CommandOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		status      int
		wantCommand string
		wantOutcome string
	}{
		{"success", "/v1/commands/list-stores", http.StatusOK, "list-stores", "success"},
		{"argument error", "/v1/commands/revoke-key", http.StatusBadRequest, "revoke-key", "argument_error"},
		{"validation error", "/v1/commands/create-store", http.StatusUnprocessableEntity, "create-store", "validation_error"},
		{"unknown error", "/v1/commands/get-config", http.StatusBadGateway, "get-config", "unknown_error"},
		{"unregistered name", "/v1/commands/drop-tables", http.StatusNotFound, "unregistered", "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(mw.Metrics(command.Builtin()))
			e.POST("/v1/commands/:name", func(c echo.Context) error {
				return c.NoContent(tt.status)
			})

			counter := metrics.GatewayCommandsTotal.WithLabelValues(tt.wantCommand, tt.wantOutcome)
			before := testutil.ToFloat64(counter)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.target, http.NoBody))

			assert.Equal(t, tt.status, rec.Code)
			assert.InDelta(t, before+1, testutil.ToFloat64(counter), 0)
		})
	}
}

func TestMetricsMiddleware_DescribeNotCountedAsCommand(t *testing.T) {
	e := echo.New()
	e.Use(mw.Metrics(command.Builtin()))
	e.GET("/v1/commands", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	before := testutil.CollectAndCount(metrics.GatewayCommandsTotal)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/commands", http.NoBody))

	assert.Equal(t, before, testutil.CollectAndCount(metrics.GatewayCommandsTotal))
}
