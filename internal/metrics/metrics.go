package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var lookupsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "feesched_lookups_total",
		Help: "Total fee-schedule lookups by match type and outcome.",
	},
	[]string{"match_type", "outcome"},
)

var registerOnce sync.Once

// Register registers the lookup counter with the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(lookupsTotal)
	})
}

// RecordLookup counts one resolved lookup.
func RecordLookup(matchType string, success bool) {
	outcome := "miss"
	if success {
		outcome = "hit"
	}
	lookupsTotal.WithLabelValues(matchType, outcome).Inc()
}
