package metrics

import (
	"maps"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playoutnode",
		Subsystem: "pipeline",
		Name:      "builds_total",
		Help:      "Commands built, by video encoder family and result",
	}, []string{"family", "result"})

	softwareDecodeFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playoutnode",
		Subsystem: "pipeline",
		Name:      "software_decode_fallbacks_total",
		Help:      "Builds that decoded in software because the accelerator cannot decode the source",
	}, []string{"accel", "codec"})

	probeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "playoutnode",
		Subsystem: "probe",
		Name:      "duration_seconds",
		Help:      "Time spent running ffprobe",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	probeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playoutnode",
		Subsystem: "probe",
		Name:      "failures_total",
		Help:      "Probe failures by reason",
	}, []string{"reason"})

	// Local copy for the API status endpoint.
	buildStats   = BuildStats{ByFamily: map[string]int{}}
	buildStatsMu sync.RWMutex
)

// BuildStats summarizes builds since process start.
type BuildStats struct {
	Total     int
	Failed    int
	ByFamily  map[string]int
	LastBuild time.Time
}

// RecordBuild counts one orchestrator run. family is the video encoder family,
// or "unknown" when the build failed before selection.
func RecordBuild(family string, err error) {
	if family == "" {
		family = "unknown"
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	pipelineBuilds.WithLabelValues(family, result).Inc()

	buildStatsMu.Lock()
	defer buildStatsMu.Unlock()
	buildStats.Total++
	if err != nil {
		buildStats.Failed++
		return
	}
	buildStats.ByFamily[family]++
	buildStats.LastBuild = time.Now()
}

// RecordSoftwareDecode counts a decode that could not use the accelerator.
func RecordSoftwareDecode(accel, codec string) {
	softwareDecodeFallbacks.WithLabelValues(accel, codec).Inc()
}

// ObserveProbe records one probe run. reason is empty on success.
func ObserveProbe(elapsed time.Duration, reason string) {
	probeDuration.Observe(elapsed.Seconds())
	if reason != "" {
		probeFailures.WithLabelValues(reason).Inc()
	}
}

// GetBuildStats returns a copy of the build counters.
func GetBuildStats() BuildStats {
	buildStatsMu.RLock()
	defer buildStatsMu.RUnlock()
	dup := buildStats
	dup.ByFamily = maps.Clone(buildStats.ByFamily)
	return dup
}
