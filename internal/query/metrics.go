// internal/query/metrics.go
package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	executions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "query",
		Name:      "executions_total",
		Help:      "Template executions by outcome.",
	}, []string{"template", "status"})

	injectionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "query",
		Name:      "injection_rejections_total",
		Help:      "Parameter values rejected by the injection-signal scan.",
	}, []string{"template"})
)
