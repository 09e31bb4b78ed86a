package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// DispatchByResult returns a timeseries panel of dispatches split by
// envelope result (success or error_type).
func DispatchByResult() *timeseries.PanelBuilder {
	return lineChart("Dispatches", "Command dispatches per second by result", "ops").
		WithTarget(PromQuery(
			`sum by (result) (rate(marketplace_dispatch_total`+Sel()+`[5m]))`,
			"{{result}}", "A",
		)).
		Legend(TableLegend("mean", "max"))
}

// TopCommands returns a timeseries panel of the busiest commands.
func TopCommands() *timeseries.PanelBuilder {
	return lineChart("Top Commands", "Five most dispatched commands", "ops").
		WithTarget(PromQuery(
			`topk(5, sum by (command) (rate(marketplace_dispatch_total`+Sel()+`[5m])))`,
			"{{command}}", "A",
		)).
		Legend(TableLegend("mean", "max"))
}

// GatewayOutcomes returns a timeseries panel of gateway run-command calls
// split by envelope outcome.
func GatewayOutcomes() *timeseries.PanelBuilder {
	return lineChart("Gateway Command Outcomes", "POST /v1/commands/{name} calls per second by outcome", "ops").
		WithTarget(PromQuery(
			`sum by (outcome) (rate(marketplace_gateway_commands_total`+Sel()+`[5m]))`,
			"{{outcome}}", "A",
		)).
		Legend(TableLegend("mean", "max"))
}

// LogoutFailures returns a stat panel counting session brackets whose
// logout failed in the last hour.
func LogoutFailures() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Logout Failures (1h)").
		Description("Session brackets whose logout call failed").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(
			`sum(increase(marketplace_session_logout_failures_total`+Sel()+`[1h]))`,
			"", "A",
		)).
		Thresholds(ThresholdsGreenYellowRed(1, 10)).
		ColorScheme(ColorSchemeThresholds())
}
