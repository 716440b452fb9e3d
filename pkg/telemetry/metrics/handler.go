package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxConcurrentScrapes bounds parallel gathers of the registry.
const maxConcurrentScrapes = 4

// Handler serves the collector's registry. Scrapes themselves are counted
// under promhttp_metric_handler_requests_total in the same registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(c.registry, promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		Registry:            c.registry,
		EnableOpenMetrics:   true,
		MaxRequestsInFlight: maxConcurrentScrapes,
		ErrorHandling:       promhttp.ContinueOnError,
	}))
}
