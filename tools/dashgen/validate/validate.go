// Package validate checks generated dashboards and rules: every PromQL
// expression must parse and every metric it selects must be known.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/marketplace/tools/dashgen/rules"
)

// Result collects validation findings.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether there were no errors.
func (r *Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(format string, a ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, a...))
}

// Expr parses one PromQL expression and reports unknown metric names.
func Expr(where, expr string, known map[string]bool, r *Result) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		r.errorf("%s: invalid PromQL %q: %v", where, expr, err)
		return
	}

	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		if vs, ok := n.(*parser.VectorSelector); ok && vs.Name != "" && !known[vs.Name] {
			r.errorf("%s: unknown metric %q", where, vs.Name)
		}
		return nil
	})
}

// Dashboard validates every Prometheus target in a built dashboard. The
// dashboard is walked through its JSON form so row nesting and panel kinds
// need no special casing.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) *Result {
	r := &Result{}

	raw, err := json.Marshal(dash)
	if err != nil {
		r.errorf("encoding dashboard: %v", err)
		return r
	}

	var doc dashboardDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.errorf("decoding dashboard: %v", err)
		return r
	}

	for _, p := range flatten(doc.Panels) {
		if len(p.Targets) == 0 {
			r.Warnings = append(r.Warnings, fmt.Sprintf("panel %q has no targets", p.Title))
		}
		for _, t := range p.Targets {
			Expr(fmt.Sprintf("panel %q target %s", p.Title, t.RefID), t.Expr, known, r)
		}
	}
	return r
}

type dashboardDoc struct {
	Panels []panelDoc `json:"panels"`
}

type panelDoc struct {
	Title   string     `json:"title"`
	Type    string     `json:"type"`
	Targets []target   `json:"targets"`
	Panels  []panelDoc `json:"panels"`
}

type target struct {
	RefID string `json:"refId"`
	Expr  string `json:"expr"`
}

// flatten returns the non-row panels, descending into rows.
func flatten(panels []panelDoc) []panelDoc {
	var out []panelDoc
	for _, p := range panels {
		if p.Type == "row" {
			out = append(out, flatten(p.Panels)...)
			continue
		}
		out = append(out, p)
	}
	return out
}

// Rules validates every expression in a PrometheusRule. Recording rule
// names must be listed in known so dashboards may reference them.
func Rules(cr rules.PrometheusRule, known map[string]bool) *Result {
	r := &Result{}
	seen := map[string]bool{}

	for _, g := range cr.Spec.Groups {
		for _, rule := range g.Rules {
			name := rule.Record
			if name == "" {
				name = rule.Alert
			}
			if seen[name] {
				r.errorf("rule %q defined twice", name)
			}
			seen[name] = true

			if rule.Record != "" && !known[rule.Record] {
				r.errorf("recording rule %q missing from known metrics", rule.Record)
			}
			Expr("rule "+name, rule.Expr, known, r)
		}
	}

	sort.Strings(r.Errors)
	return r
}
