package switchyard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the prometheus collectors updated by a Router.  A nil *Metrics
// records nothing.
type Metrics struct {
	Matches               *prometheus.CounterVec
	NotFound              prometheus.Counter
	SkippedMiddleware     *prometheus.CounterVec
	UnresolvedPlaceholder prometheus.Counter
	DispatchErrors        prometheus.Counter
	DispatchDuration      prometheus.Histogram
}

// NewMetrics creates the router collectors and registers them with reg.
// Passing prometheus.DefaultRegisterer exposes them on the default handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Matches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "route_matches_total",
			Help:      "Requests matched to a route, by route name or template.",
		}, []string{"method", "route"}),
		NotFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "route_not_found_total",
			Help:      "Requests that matched no route.",
		}),
		SkippedMiddleware: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "middleware_skipped_total",
			Help:      "Middleware tokens skipped because no middleware is registered under the name.",
		}, []string{"middleware"}),
		UnresolvedPlaceholder: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "pattern_unresolved_placeholders_total",
			Help:      "Route placeholders left literal because no pattern is registered for them.",
		}),
		DispatchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "dispatch_errors_total",
			Help:      "Dispatches that ended in a fatal error.",
		}),
		DispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "switchyard",
			Name:      "dispatch_duration_seconds",
			Help:      "Time from match to the end of the terminate phase.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) matched(method string, r *Route) {
	if m == nil {
		return
	}
	label := r.name
	if label == "" {
		label = r.domain + r.uri
	}
	m.Matches.WithLabelValues(method, label).Inc()
}

func (m *Metrics) notFound() {
	if m != nil {
		m.NotFound.Inc()
	}
}

func (m *Metrics) skipped(name string) {
	if m != nil {
		m.SkippedMiddleware.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) unresolved() {
	if m != nil {
		m.UnresolvedPlaceholder.Inc()
	}
}

func (m *Metrics) dispatched(seconds float64, err error) {
	if m == nil {
		return
	}
	m.DispatchDuration.Observe(seconds)
	if err != nil {
		m.DispatchErrors.Inc()
	}
}
