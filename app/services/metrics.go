package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MutationsTotal counts writes by entity (post, review), op (create, update,
// delete) and outcome (ok, invalid).
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cardboard_mutations_total",
		Help: "Post and review writes by outcome",
	},
	[]string{"entity", "op", "outcome"},
)

func recordMutation(entity, op, outcome string) {
	MutationsTotal.WithLabelValues(entity, op, outcome).Inc()
}
