package rules

// AlertRules returns a PrometheusRule CR containing alert rules for the
// marketplace gateway.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name:   "marketplace-alerts",
			Labels: ruleLabels,
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "marketplace-alerts",
					Rules: []Rule{
						{
							Alert:  "MarketplaceGatewayDown",
							Expr:   `absent(up{job="marketplace-gateway"})`,
							For:    "2m",
							Labels: severity("critical"),
							Annotations: map[string]string{
								"summary":     "Marketplace gateway is down",
								"description": "The marketplace-gateway job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert:  "MarketplaceUnreachable",
							Expr:   `marketplace_readyz_up == 0`,
							For:    "2m",
							Labels: severity("critical"),
							Annotations: map[string]string{
								"summary":     "Marketplace API is unreachable from the gateway",
								"description": "The readiness probe has failed to reach the marketplace for more than 2 minutes.",
							},
						},
						{
							Alert:  "MarketplaceGatewayErrors",
							Expr:   `marketplace:http_errors:rate5m / marketplace:http_requests:rate5m > 0.05`,
							For:    "5m",
							Labels: severity("warning"),
							Annotations: map[string]string{
								"summary":     "High gateway error rate",
								"description": "More than 5% of gateway requests are returning 5xx over the last 5 minutes.",
							},
						},
						{
							Alert:  "MarketplaceRateLimited",
							Expr:   `sum(rate(marketplace_client_requests_total{outcome="rate_limit"}[5m])) > 0`,
							For:    "5m",
							Labels: severity("warning"),
							Annotations: map[string]string{
								"summary":     "Marketplace API is rate limiting calls",
								"description": "Outgoing calls have been answered with 429 for more than 5 minutes.",
							},
						},
						{
							Alert:  "MarketplaceLogoutFailures",
							Expr:   `increase(marketplace_session_logout_failures_total[15m]) > 0`,
							For:    "0m",
							Labels: severity("warning"),
							Annotations: map[string]string{
								"summary":     "Session logouts are failing",
								"description": "One or more session brackets could not log out; sessions may be left open on the marketplace.",
							},
						},
					},
				},
			},
		},
	}
}

func severity(s string) map[string]string {
	return map[string]string{"severity": s}
}
