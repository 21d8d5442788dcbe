package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// authAttempts counts authentication attempts by method and outcome.
var authAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gatehouse_auth_attempts_total",
		Help: "Authentication attempts by method (signup, password, wallet) and outcome.",
	},
	[]string{"method", "outcome"},
)

func countAuth(method string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	authAttempts.WithLabelValues(method, outcome).Inc()
}
