package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveGames = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "games_active",
			Help: "Rooms currently open on this instance",
		},
	)
	MovesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moves_total",
			Help: "Accepted cell reveals",
		},
	)
	GamesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "games_total",
			Help: "Closed games by outcome",
		},
		[]string{"outcome"},
	)
	SettlementFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settlement_failures_total",
			Help: "Settlements that exhausted their retries",
		},
	)
)

func init() {
	prometheus.MustRegister(ActiveGames)
	prometheus.MustRegister(MovesTotal)
	prometheus.MustRegister(GamesTotal)
	prometheus.MustRegister(SettlementFailures)
}
