package notary

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Submitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notary_submitted_total",
			Help: "Events anchored by the notary service",
		},
	)
	Retries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notary_retries_total",
			Help: "Failed submission attempts that were retried",
		},
	)
	Dropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notary_dropped_total",
			Help: "Events dropped after exhausting retries or on a full queue",
		},
	)
)

func init() {
	prometheus.MustRegister(Submitted)
	prometheus.MustRegister(Retries)
	prometheus.MustRegister(Dropped)
}
