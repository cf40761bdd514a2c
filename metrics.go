package vfdt

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	examplesTotalMetrics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfdt_examples_total",
			Help: "Total number of examples read from training streams by result",
		}, []string{"model", "result"},
	)

	splitsTotalMetrics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfdt_splits_total",
			Help: "Total number of leaves replaced by decision nodes",
		}, []string{"model"},
	)

	insertDurationMetrics = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vfdt_insert_duration_seconds",
			Help:    "Time taken to insert an example into a tree, split checks included",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10), // 1µs to ~0.26s
		}, []string{"model"},
	)

	leavesMetrics = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vfdt_tree_leaves",
			Help: "Current number of leaves of the tree",
		}, []string{"model"},
	)

	depthMetrics = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vfdt_tree_depth",
			Help: "Current depth of the tree",
		}, []string{"model"},
	)
)

func init() {
	prometheus.MustRegister(
		examplesTotalMetrics,
		splitsTotalMetrics,
		insertDurationMetrics,
		leavesMetrics,
		depthMetrics,
	)
}
