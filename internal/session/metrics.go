package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skyradar",
		Name:      "fetch_total",
		Help:      "The total number of data source fetches, by source and result.",
	}, []string{"source", "result"})
	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skyradar",
		Name:      "fetch_duration_seconds",
		Help:      "Time taken by data source fetches, including retries.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"source"})
	aircraftGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "skyradar",
		Name:      "aircraft_count",
		Help:      "The number of aircraft in the latest snapshot.",
	})
	trailsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "skyradar",
		Name:      "trails_count",
		Help:      "The number of aircraft with a trail.",
	})
	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skyradar",
		Name:      "frames_rendered_total",
		Help:      "The total number of radar frames drawn.",
	})
)
