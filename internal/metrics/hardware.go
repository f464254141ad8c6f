// Package metrics provides Prometheus metrics for hardware detection, media
// probing and pipeline construction.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hardwareDetectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "playoutnode",
		Subsystem: "hardware",
		Name:      "detection_duration_seconds",
		Help:      "Time spent running ffmpeg capability detection",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	hardwareDetectionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "playoutnode",
		Subsystem: "hardware",
		Name:      "detection_failures_total",
		Help:      "Detection runs that fell back to software only",
	})

	hardwareAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "playoutnode",
		Subsystem: "hardware",
		Name:      "available",
		Help:      "1 when ffmpeg reports the accelerator, 0 otherwise",
	}, []string{"accel"})

	hardwarePreferred = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "playoutnode",
		Subsystem: "hardware",
		Name:      "preferred",
		Help:      "1 for the accelerator new pipelines use",
	}, []string{"accel"})
)

// ObserveDetection records one detection run.
func ObserveDetection(elapsed time.Duration, failed bool) {
	hardwareDetectionDuration.Observe(elapsed.Seconds())
	if failed {
		hardwareDetectionFailures.Inc()
	}
}

// SetHardwareInventory publishes availability for every accelerator in known
// and marks preferred. Accelerators missing from available are set to 0.
func SetHardwareInventory(known, available []string, preferred string) {
	present := make(map[string]bool, len(available))
	for _, a := range available {
		present[a] = true
	}
	for _, a := range known {
		hardwareAvailable.WithLabelValues(a).Set(boolToFloat(present[a]))
		hardwarePreferred.WithLabelValues(a).Set(boolToFloat(a == preferred))
	}
	hardwarePreferred.WithLabelValues("none").Set(boolToFloat(preferred == "none" || preferred == ""))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
