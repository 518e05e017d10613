package workspace

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricDispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "studio",
	Name:      "dispatch_total",
	Help:      "Generation units dispatched, by execution mode and outcome.",
}, []string{"mode", "outcome"})

var metricPollTicks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "studio",
	Name:      "poll_ticks_total",
	Help:      "Job status polls issued.",
})

var metricRefunds = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "studio",
	Name:      "refunds_total",
	Help:      "Credit refunds issued for failed, previously debited requests.",
})

var metricBalance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "studio",
	Name:      "credits_balance",
	Help:      "Optimistic credit balance as currently cached.",
})

var metricActivePolls = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "studio",
	Name:      "active_polls",
	Help:      "Poll loops currently running.",
})
