package monitor

import "github.com/prometheus/client_golang/prometheus"

// Prometheus monitoring metrics.
var (
	checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dadude_monitor_checks_total",
			Help: "Total liveness checks by result status.",
		},
		[]string{"result"},
	)
	transitionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dadude_monitor_transitions_total",
			Help: "Total observed device status transitions.",
		},
	)
	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dadude_monitor_tick_duration_seconds",
			Help:    "Duration of monitoring ticks in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	monitoredDevices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dadude_monitor_devices",
			Help: "Number of devices checked in the last tick.",
		},
	)
)

func init() {
	prometheus.MustRegister(checksTotal)
	prometheus.MustRegister(transitionsTotal)
	prometheus.MustRegister(tickDuration)
	prometheus.MustRegister(monitoredDevices)
}
