package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatbot_requests_total",
		Help: "Chat requests by outcome (ok, degraded, invalid, error).",
	}, []string{"outcome"})

	chatLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatbot_request_seconds",
		Help:    "End-to-end chat request latency, retrieval plus generation.",
		Buckets: prometheus.DefBuckets,
	})
)
