package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Requests    *prometheus.CounterVec
	Uploads     *prometheus.CounterVec
	UploadBytes *prometheus.CounterVec
	Deletes     *prometheus.CounterVec
}

// New registers the service counters on reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediaservice",
			Name:      "http_requests_total",
		}, []string{"method", "status"}),
		Uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediaservice",
			Name:      "uploads_total",
		}, []string{"category", "result"}),
		UploadBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediaservice",
			Name:      "upload_bytes_total",
		}, []string{"category"}),
		Deletes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediaservice",
			Name:      "deletes_total",
		}, []string{"result"}),
	}
}
