package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RequestRate returns a timeseries panel showing the gateway request rate.
func RequestRate() *timeseries.PanelBuilder {
	return lineChart("Request Rate", "Gateway HTTP requests per second", "reqps").
		WithTarget(PromQuery(`marketplace:http_requests:rate5m`, "req/s", "A")).
		Legend(TableLegend("mean", "max"))
}

// LatencyPercentiles returns a timeseries panel showing p50, p95, and p99
// gateway request latencies.
func LatencyPercentiles() *timeseries.PanelBuilder {
	return quantiles(lineChart("Latency Percentiles", "Gateway request duration percentiles", "s"),
		"marketplace_http_request_duration_seconds_bucket")
}

// ErrorRate returns a timeseries panel showing the gateway 5xx rate as a
// percentage. Upstream failures surface as 502.
func ErrorRate() *timeseries.PanelBuilder {
	return lineChart("Error Rate %", "Gateway 5xx responses as percentage of total requests", "percent").
		WithTarget(PromQuery(
			`marketplace:http_errors:rate5m / marketplace:http_requests:rate5m * 100`,
			"error %", "A",
		)).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}

func lineChart(title, desc, unit string) *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title(title).
		Description(desc).
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		Unit(unit).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

func quantiles(b *timeseries.PanelBuilder, bucket string) *timeseries.PanelBuilder {
	for i, q := range []struct{ v, legend string }{{"0.50", "p50"}, {"0.95", "p95"}, {"0.99", "p99"}} {
		b = b.WithTarget(PromQuery(
			`histogram_quantile(`+q.v+`, sum(rate(`+bucket+Sel()+`[5m])) by (le))`,
			q.legend,
			string(rune('A'+i)),
		))
	}
	return b.Legend(TableLegend("mean", "max"))
}
