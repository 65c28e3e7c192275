package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurant",
		Subsystem: "hub",
		Name:      "deliveries_total",
		Help:      "Messages handed to local subscribers, by topic kind and result.",
	}, []string{"topic", "result"})

	sinkForwardsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurant",
		Subsystem: "hub",
		Name:      "sink_forwards_total",
		Help:      "Messages forwarded to external sinks, by sink and result.",
	}, []string{"sink", "result"})

	subscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "restaurant",
		Subsystem: "hub",
		Name:      "subscribers",
		Help:      "Currently registered subscribers.",
	})
)
