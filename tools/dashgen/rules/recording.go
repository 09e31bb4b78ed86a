package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name:   "marketplace-recording-rules",
			Labels: ruleLabels,
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "marketplace-recording",
					Rules: []Rule{
						{
							Record: "marketplace:http_requests:rate5m",
							Expr:   `sum(rate(marketplace_http_requests_total[5m]))`,
						},
						{
							Record: "marketplace:http_errors:rate5m",
							Expr:   `sum(rate(marketplace_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "marketplace:client_requests:rate5m",
							Expr:   `sum(rate(marketplace_client_requests_total[5m]))`,
						},
						{
							Record: "marketplace:client_errors:rate5m",
							Expr:   `sum(rate(marketplace_client_requests_total{outcome!="ok"}[5m]))`,
						},
						{
							Record: "marketplace:dispatch:rate5m",
							Expr:   `sum(rate(marketplace_dispatch_total[5m]))`,
						},
						{
							Record: "marketplace:dispatch_failures:rate5m",
							Expr:   `sum(rate(marketplace_dispatch_total{result!="success"}[5m]))`,
						},
					},
				},
			},
		},
	}
}
