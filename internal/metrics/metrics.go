// Package metrics exposes the server's Prometheus metrics:
//   - mockserver_cases_loaded_total          – scripts loaded
//   - mockserver_steps_executed_total{action} – steps applied, by action
//   - mockserver_step_rejects_total{reason}  – rejected engine operations
//   - mockserver_resets_total                – execution-data resets
//   - mockserver_http_requests_total{path,status} – HTTP traffic
//
// All collectors are registered in init and served by the router at
// /metrics (Prometheus text exposition format).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CasesLoaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mockserver_cases_loaded_total",
			Help: "Case scripts loaded",
		},
	)

	StepsExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockserver_steps_executed_total",
			Help: "Scripted steps applied, by action",
		},
		[]string{"action"},
	)

	StepRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockserver_step_rejects_total",
			Help: "Engine operations rejected, by reason",
		},
		[]string{"reason"},
	)

	Resets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mockserver_resets_total",
			Help: "Execution-data resets",
		},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockserver_http_requests_total",
			Help: "HTTP requests, by route pattern and status code",
		},
		[]string{"path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		CasesLoaded,
		StepsExecuted,
		StepRejects,
		Resets,
		HTTPRequests,
	)
}
