// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashkeeper",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dashkeeper",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// ResetEmails counts reset e-mails by outcome ("sent" or "failed").
	ResetEmails = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashkeeper",
		Name:      "reset_emails_total",
		Help:      "Password reset e-mails by delivery outcome.",
	}, []string{"outcome"})

	DashboardViews = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dashkeeper",
		Name:      "dashboard_views_total",
		Help:      "Counted dashboard views.",
	})

	SourceProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashkeeper",
		Name:      "source_probes_total",
		Help:      "Source reachability probes by result.",
	}, []string{"result"})
)
