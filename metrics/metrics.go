package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jaryo_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jaryo_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	UploadedFiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jaryo_uploaded_attachments_total",
		Help: "Attachments stored through uploads.",
	})

	UploadedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jaryo_uploaded_bytes_total",
		Help: "Bytes written to the blob store by uploads.",
	})

	Downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jaryo_downloads_total",
		Help: "Attachment downloads by result (full, partial, not_found, error).",
	}, []string{"result"})

	BlobDeleteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jaryo_blob_delete_failures_total",
		Help: "Blob removals that failed for reasons other than a missing blob.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
