// Package exporters exposes the registered metrics over HTTP.
package exporters

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/playoutnode/internal/logging"
)

// HTTPHandler serves every metric registered with the default registry in
// Prometheus text or OpenMetrics format. A collector that fails is logged
// and skipped instead of failing the scrape.
func HTTPHandler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog:          scrapeLog{logging.GetLogger("metrics")},
			ErrorHandling:     promhttp.ContinueOnError,
			EnableOpenMetrics: true,
		}),
	)
}

// scrapeLog adapts a module logger to promhttp.Logger.
type scrapeLog struct {
	logger logging.Logger
}

func (l scrapeLog) Println(v ...any) {
	l.logger.Warn("Metrics scrape error", "error", fmt.Sprint(v...))
}
