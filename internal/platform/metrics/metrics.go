package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the funnel service.
type Metrics struct {
	SessionsMinted   prometheus.Counter
	SessionsReused   prometheus.Counter
	SessionMintFails prometheus.Counter

	IdentityLookups   *prometheus.CounterVec
	PartialMatches    *prometheus.CounterVec
	GeocodeDuration   prometheus.Histogram
	EventsPublished   *prometheus.CounterVec
	EventsDropped     prometheus.Counter
	RedirectsByMethod *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SessionsMinted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "funnelgate_sessions_minted_total",
			Help: "Session tokens minted from the upstream session API",
		}),
		SessionsReused: promauto.NewCounter(prometheus.CounterOpts{
			Name: "funnelgate_sessions_reused_total",
			Help: "Session resolutions served from cache without a network call",
		}),
		SessionMintFails: promauto.NewCounter(prometheus.CounterOpts{
			Name: "funnelgate_session_mint_failures_total",
			Help: "Session mint attempts that failed or timed out",
		}),
		IdentityLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funnelgate_identity_lookups_total",
			Help: "Landing-page validation lookups by outcome",
		}, []string{"outcome"}),
		PartialMatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funnelgate_partial_matches_total",
			Help: "Partial-match lookups by outcome",
		}, []string{"outcome"}),
		GeocodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "funnelgate_geocode_duration_seconds",
			Help:    "Latency of reverse-geocoding lookups",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funnelgate_events_published_total",
			Help: "Analytics events published by event name",
		}, []string{"event"}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "funnelgate_events_dropped_total",
			Help: "Analytics events dropped because the pipeline was not ready",
		}),
		RedirectsByMethod: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funnelgate_redirects_total",
			Help: "Outbound redirects composed by address selection method",
		}, []string{"method"}),
	}
}
