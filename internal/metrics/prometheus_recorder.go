package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry        *prom.Registry
	mutations       *prom.CounterVec
	reconciles      *prom.CounterVec
	persistDuration *prom.HistogramVec
	skippedLines    prom.Counter
	cartLines       prom.Gauge
	catalogProducts prom.Gauge
}

// NewPrometheusRecorder constructs and registers the shopsync metrics plus
// the standard Go and process collectors.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.mutations = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "shopsync",
		Name:      "mutations_total",
		Help:      "Store mutations by store, operation and result",
	}, []string{"store", "op", "result"})
	pr.reconciles = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "shopsync",
		Name:      "reconciles_total",
		Help:      "Reconcile passes by trigger and outcome",
	}, []string{"trigger", "outcome"})
	pr.persistDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "shopsync",
		Name:      "persist_duration_seconds",
		Help:      "Duration of durable entry writes",
		Buckets:   prom.DefBuckets,
	}, []string{"key", "result"})
	pr.skippedLines = prom.NewCounter(prom.CounterOpts{
		Namespace: "shopsync",
		Name:      "amount_skipped_lines_total",
		Help:      "Cart lines excluded from the amount because the product is absent from the catalog",
	})
	pr.cartLines = prom.NewGauge(prom.GaugeOpts{
		Namespace: "shopsync",
		Name:      "cart_lines",
		Help:      "Distinct (product, size) lines currently in the cart",
	})
	pr.catalogProducts = prom.NewGauge(prom.GaugeOpts{
		Namespace: "shopsync",
		Name:      "catalog_products",
		Help:      "Products in the current catalog snapshot",
	})

	reg.MustRegister(pr.mutations, pr.reconciles, pr.persistDuration, pr.skippedLines, pr.cartLines, pr.catalogProducts)
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return pr
}

// Registry exposes the backing registry for HTTP serving.
func (pr *PrometheusRecorder) Registry() *prom.Registry { return pr.registry }

// HTTPHandler returns an http.Handler serving this recorder's metrics.
func (pr *PrometheusRecorder) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(pr.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (pr *PrometheusRecorder) IncMutation(store, op string, result MutationResult) {
	pr.mutations.WithLabelValues(store, op, string(result)).Inc()
}

func (pr *PrometheusRecorder) IncReconcile(trigger, outcome string) {
	pr.reconciles.WithLabelValues(trigger, outcome).Inc()
}

func (pr *PrometheusRecorder) ObservePersistDuration(key string, d time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	pr.persistDuration.WithLabelValues(key, result).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncSkippedAmountLines(n int) {
	pr.skippedLines.Add(float64(n))
}

func (pr *PrometheusRecorder) SetCartLines(n int) { pr.cartLines.Set(float64(n)) }

func (pr *PrometheusRecorder) SetCatalogProducts(n int) { pr.catalogProducts.Set(float64(n)) }
