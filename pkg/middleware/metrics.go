// pkg/middleware/metrics.go
package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var authFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "portal",
	Subsystem: "auth",
	Name:      "failures_total",
	Help:      "Requests rejected by session authentication, by failure class.",
}, []string{"reason"})
