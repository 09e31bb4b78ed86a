package main

import "errors"

// KnownMetrics is the set of metric names exported by the marketplace
// gateway plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// Gateway HTTP metrics.
	"marketplace_http_request_duration_seconds": true,
	"marketplace_http_requests_total":           true,
	"marketplace_gateway_commands_total":        true,

	// Health metrics.
	"marketplace_healthz_up": true,
	"marketplace_readyz_up":  true,

	// Outgoing marketplace API calls.
	"marketplace_client_requests_total":           true,
	"marketplace_client_request_duration_seconds": true,

	// Dispatcher.
	"marketplace_dispatch_total":                true,
	"marketplace_session_logout_failures_total": true,

	// Recording rules.
	"marketplace:http_requests:rate5m":     true,
	"marketplace:http_errors:rate5m":       true,
	"marketplace:client_requests:rate5m":   true,
	"marketplace:client_errors:rate5m":     true,
	"marketplace:dispatch:rate5m":          true,
	"marketplace:dispatch_failures:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
