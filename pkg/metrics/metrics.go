package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	CheckoutTotal   *prometheus.CounterVec
	VerifyTotal     *prometheus.CounterVec
	GatewayAttempts prometheus.Histogram
}

func New(namespace string) *Metrics {
	checkout := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Total number of checkout attempts.",
	}, []string{"kind", "outcome"})
	verify := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_verify_total",
		Help:      "Total number of payment verification attempts.",
	}, []string{"source", "outcome"})
	attempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_fetch_attempts",
		Help:      "Number of attempts a gateway transaction lookup needed.",
		Buckets:   []float64{1, 2, 3},
	})

	prometheus.MustRegister(checkout, verify, attempts)
	return &Metrics{CheckoutTotal: checkout, VerifyTotal: verify, GatewayAttempts: attempts}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
