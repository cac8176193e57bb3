package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	ViewsRecorded     *prometheus.CounterVec
	RatingsRecorded   *prometheus.CounterVec
	InquiriesRecorded prometheus.Counter
	GeoLookups        *prometheus.CounterVec
	AnalyticsRequests *prometheus.CounterVec
	MailSent          *prometheus.CounterVec
	Errors            *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			ViewsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "views_recorded_total",
				Help:      "View recording attempts by target and dedup outcome.",
			}, []string{"target", "outcome"}),
			RatingsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratings_recorded_total",
				Help:      "Rating submissions by target.",
			}, []string{"target"}),
			InquiriesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inquiries_recorded_total",
				Help:      "Total inquiry events recorded.",
			}),
			GeoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geo_lookups_total",
				Help:      "IP geolocation lookups by source (cache, db, provider, failed).",
			}, []string{"source"}),
			AnalyticsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analytics_requests_total",
				Help:      "Analytics endpoint requests by time range.",
			}, []string{"range"}),
			MailSent: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mail_sent_total",
				Help:      "Outbound emails by type and outcome.",
			}, []string{"type", "status"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.ViewsRecorded,
			metricsInstance.RatingsRecorded,
			metricsInstance.InquiriesRecorded,
			metricsInstance.GeoLookups,
			metricsInstance.AnalyticsRequests,
			metricsInstance.MailSent,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
