package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ClientCallsByOutcome returns a timeseries panel of outgoing marketplace
// calls split by outcome (ok or error kind).
func ClientCallsByOutcome() *timeseries.PanelBuilder {
	return lineChart("Marketplace Calls", "Outgoing marketplace API calls per second by outcome", "reqps").
		WithTarget(PromQuery(
			`sum by (outcome) (rate(marketplace_client_requests_total`+Sel()+`[5m]))`,
			"{{outcome}}", "A",
		)).
		Legend(TableLegend("mean", "max"))
}

// ClientLatency returns a timeseries panel of outgoing call latency
// percentiles.
func ClientLatency() *timeseries.PanelBuilder {
	return quantiles(lineChart("Marketplace Latency", "Outgoing marketplace API call duration percentiles", "s"),
		"marketplace_client_request_duration_seconds_bucket")
}

// ClientErrorsByPath returns a timeseries panel of failing marketplace
// endpoints.
func ClientErrorsByPath() *timeseries.PanelBuilder {
	return lineChart("Marketplace Errors", "Failed marketplace API calls per second by path", "reqps").
		WithTarget(PromQuery(
			`sum by (path) (rate(marketplace_client_requests_total`+Sel(`outcome!="ok"`)+`[5m]))`,
			"{{path}}", "A",
		)).
		Legend(TableLegend("mean", "max"))
}
