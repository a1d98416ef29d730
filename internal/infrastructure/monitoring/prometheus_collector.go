package monitoring

import (
	"time"

	"socialdeck/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Gauges
	connectionsActive prometheus.Gauge
	scopeMembers      *prometheus.GaugeVec

	// Counters
	connectionsTotal  prometheus.Counter
	eventsDispatched  *prometheus.CounterVec
	eventsDropped     *prometheus.CounterVec
	joinsRefusedTotal prometheus.Counter
	authFailuresTotal *prometheus.CounterVec

	// Histograms
	aggregationDuration prometheus.Histogram
	httpRequestDuration *prometheus.HistogramVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		connectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "socialdeck_ws_connections_active",
			Help: "Number of currently admitted websocket connections",
		}),

		scopeMembers: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "socialdeck_scope_members",
			Help: "Number of connections subscribed to each scope kind",
		}, []string{"kind"}),

		connectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "socialdeck_ws_connections_total",
			Help: "Total number of websocket connections admitted",
		}),

		eventsDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "socialdeck_events_dispatched_total",
			Help: "Total events delivered to subscribers, by scope kind",
		}, []string{"kind"}),

		eventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "socialdeck_events_dropped_total",
			Help: "Total events dropped because a subscriber buffer was full",
		}, []string{"kind"}),

		joinsRefusedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "socialdeck_scope_joins_refused_total",
			Help: "Total scope join requests refused by authorization",
		}),

		authFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "socialdeck_auth_failures_total",
			Help: "Total token verification failures, by reason",
		}, []string{"reason"}),

		aggregationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "socialdeck_aggregation_duration_seconds",
			Help:    "Duration of analytics aggregation runs",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}),

		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "socialdeck_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (p *PrometheusCollector) RecordConnectionAdmitted() {
	p.connectionsActive.Inc()
	p.connectionsTotal.Inc()
}

func (p *PrometheusCollector) RecordConnectionClosed() {
	p.connectionsActive.Dec()
}

func (p *PrometheusCollector) RecordScopeJoined(scope domain.ChannelScope) {
	p.scopeMembers.WithLabelValues(string(scope.Kind)).Inc()
}

func (p *PrometheusCollector) RecordScopeLeft(scope domain.ChannelScope) {
	p.scopeMembers.WithLabelValues(string(scope.Kind)).Dec()
}

func (p *PrometheusCollector) RecordJoinRefused() {
	p.joinsRefusedTotal.Inc()
}

func (p *PrometheusCollector) RecordDispatch(scope domain.ChannelScope, delivered, dropped int) {
	if delivered > 0 {
		p.eventsDispatched.WithLabelValues(string(scope.Kind)).Add(float64(delivered))
	}
	if dropped > 0 {
		p.eventsDropped.WithLabelValues(string(scope.Kind)).Add(float64(dropped))
	}
}

func (p *PrometheusCollector) RecordAuthFailure(reason string) {
	p.authFailuresTotal.WithLabelValues(reason).Inc()
}

func (p *PrometheusCollector) RecordAggregation(duration time.Duration) {
	p.aggregationDuration.Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	p.httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
