package exporters

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smazurov/playoutnode/internal/metrics"
)

func TestHTTPHandler(t *testing.T) {
	handler := HTTPHandler()
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}

	// Record something so the pipeline family shows up.
	metrics.RecordBuild("software", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "playoutnode_pipeline_builds_total") {
		t.Error("expected pipeline build counter in response")
	}
	if !strings.Contains(body, "playoutnode_hardware_detection_duration_seconds") {
		t.Error("expected detection histogram in response")
	}
}
