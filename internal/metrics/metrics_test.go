package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetHardwareInventory(t *testing.T) {
	known := []string{"nvenc", "vaapi", "qsv"}

	SetHardwareInventory(known, []string{"vaapi"}, "vaapi")

	if got := testutil.ToFloat64(hardwareAvailable.WithLabelValues("vaapi")); got != 1 {
		t.Errorf("vaapi available = %v, want 1", got)
	}
	if got := testutil.ToFloat64(hardwareAvailable.WithLabelValues("nvenc")); got != 0 {
		t.Errorf("nvenc available = %v, want 0", got)
	}
	if got := testutil.ToFloat64(hardwarePreferred.WithLabelValues("vaapi")); got != 1 {
		t.Errorf("vaapi preferred = %v, want 1", got)
	}
	if got := testutil.ToFloat64(hardwarePreferred.WithLabelValues("none")); got != 0 {
		t.Errorf("none preferred = %v, want 0", got)
	}

	SetHardwareInventory(known, nil, "none")
	if got := testutil.ToFloat64(hardwareAvailable.WithLabelValues("vaapi")); got != 0 {
		t.Errorf("vaapi available after reset = %v, want 0", got)
	}
	if got := testutil.ToFloat64(hardwarePreferred.WithLabelValues("none")); got != 1 {
		t.Errorf("none preferred = %v, want 1", got)
	}
}

func TestObserveDetection(t *testing.T) {
	before := testutil.ToFloat64(hardwareDetectionFailures)

	ObserveDetection(120*time.Millisecond, false)
	ObserveDetection(5*time.Second, true)

	if got := testutil.ToFloat64(hardwareDetectionFailures) - before; got != 1 {
		t.Errorf("failures delta = %v, want 1", got)
	}
}

func TestRecordBuild(t *testing.T) {
	start := GetBuildStats()
	okBefore := testutil.ToFloat64(pipelineBuilds.WithLabelValues("nvenc", "ok"))

	RecordBuild("nvenc", nil)
	RecordBuild("", errors.New("unsupported codec"))

	stats := GetBuildStats()
	if stats.Total-start.Total != 2 {
		t.Errorf("Total delta = %d, want 2", stats.Total-start.Total)
	}
	if stats.Failed-start.Failed != 1 {
		t.Errorf("Failed delta = %d, want 1", stats.Failed-start.Failed)
	}
	if stats.ByFamily["nvenc"]-start.ByFamily["nvenc"] != 1 {
		t.Errorf("nvenc delta = %d, want 1", stats.ByFamily["nvenc"]-start.ByFamily["nvenc"])
	}
	if got := testutil.ToFloat64(pipelineBuilds.WithLabelValues("nvenc", "ok")) - okBefore; got != 1 {
		t.Errorf("builds counter delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pipelineBuilds.WithLabelValues("unknown", "error")); got < 1 {
		t.Errorf("unknown/error counter = %v, want >= 1", got)
	}

	// Returned copy is independent.
	stats.ByFamily["nvenc"] = 999
	if GetBuildStats().ByFamily["nvenc"] == 999 {
		t.Error("build stats map was modified through the copy")
	}
}

func TestRecordBuildConcurrent(t *testing.T) {
	start := GetBuildStats().Total
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				RecordBuild("software", nil)
			}
		}()
	}
	wg.Wait()

	if got := GetBuildStats().Total - start; got != 1000 {
		t.Errorf("Total delta = %d, want 1000", got)
	}
}

func TestObserveProbe(t *testing.T) {
	before := testutil.ToFloat64(probeFailures.WithLabelValues("timeout"))

	ObserveProbe(time.Second, "")
	ObserveProbe(30*time.Second, "timeout")

	if got := testutil.ToFloat64(probeFailures.WithLabelValues("timeout")) - before; got != 1 {
		t.Errorf("timeout failures delta = %v, want 1", got)
	}
}

func TestRecordSoftwareDecode(t *testing.T) {
	before := testutil.ToFloat64(softwareDecodeFallbacks.WithLabelValues("videotoolbox", "mpeg2video"))
	RecordSoftwareDecode("videotoolbox", "mpeg2video")
	if got := testutil.ToFloat64(softwareDecodeFallbacks.WithLabelValues("videotoolbox", "mpeg2video")) - before; got != 1 {
		t.Errorf("fallback delta = %v, want 1", got)
	}
}
