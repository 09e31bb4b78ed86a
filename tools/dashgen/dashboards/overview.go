// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/marketplace/tools/dashgen/panels"
)

// OverviewUID is the stable dashboard UID.
const OverviewUID = "marketplace-overview"

// BuildOverview constructs the Marketplace Overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Marketplace Overview").
		Uid(OverviewUID).
		Tags([]string{"marketplace", "gateway"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.DispatchSuccessGauge()).
		WithPanel(panels.UptimeStat()))

	b.WithRow(dashboard.NewRowBuilder("Gateway HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()).
		WithPanel(panels.GatewayOutcomes()))

	b.WithRow(dashboard.NewRowBuilder("Commands").
		WithPanel(panels.DispatchByResult()).
		WithPanel(panels.TopCommands()).
		WithPanel(panels.LogoutFailures()))

	b.WithRow(dashboard.NewRowBuilder("Marketplace API").
		WithPanel(panels.ClientCallsByOutcome()).
		WithPanel(panels.ClientLatency()).
		WithPanel(panels.ClientErrorsByPath()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
