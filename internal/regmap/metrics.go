package regmap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	busTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensornode_bus_transactions_total",
		Help: "Completed control-bus transactions by connection and direction",
	}, []string{"conn", "dir"})

	busFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensornode_bus_failures_total",
		Help: "Failed control-bus transactions by connection and direction",
	}, []string{"conn", "dir"})
)
