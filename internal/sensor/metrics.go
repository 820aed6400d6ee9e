package sensor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	powerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sensornode_powered",
		Help: "Whether the sensor is currently energized (1) or off (0)",
	})

	streamingState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sensornode_streaming",
		Help: "Whether the sensor is currently streaming (1) or idle (0)",
	})

	streamTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensornode_stream_transitions_total",
		Help: "Stream start/stop transitions by outcome",
	}, []string{"transition", "outcome"})

	powerCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sensornode_power_cycles_total",
		Help: "Completed power-on sequences",
	})

	frameLengthGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sensornode_frame_length_rows",
		Help: "Programmed frame length register value in rows",
	})

	longExpShiftGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sensornode_long_exposure_shift",
		Help: "Current long-exposure shift factor (0-7)",
	})
)
