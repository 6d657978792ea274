package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "foodshare",
		Name:      "conversation_subscriptions_active",
		Help:      "Live conversation subscriptions currently open.",
	})

	ChangeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodshare",
		Name:      "conversation_change_events_total",
		Help:      "Message change events merged by conversation synchronizers.",
	}, []string{"kind"})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "foodshare",
		Name:      "messages_sent_total",
		Help:      "Messages written by senders.",
	})

	ListingQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodshare",
		Name:      "listing_queries_total",
		Help:      "Listing store queries by kind (page or similar tier).",
	}, []string{"kind"})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodshare",
		Name:      "order_transitions_total",
		Help:      "Tracking history entries appended, by status.",
	}, []string{"status"})

	SecondaryWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodshare",
		Name:      "secondary_write_failures_total",
		Help:      "Best-effort writes that failed and were swallowed.",
	}, []string{"operation"})
)

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
