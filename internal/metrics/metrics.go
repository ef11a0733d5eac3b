package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	upstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intelink_upstream_requests_total",
		Help: "Requests sent to the Intelink backend by method and response status",
	}, []string{"method", "status"})
	tokenRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intelink_token_refresh_total",
		Help: "Token refresh attempts by outcome",
	}, []string{"outcome"})
	chartRendersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intelink_chart_renders_total",
		Help: "SVG charts rendered by kind",
	}, []string{"kind"})
	accessDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intelink_access_decisions_total",
		Help: "Access-control evaluations by result",
	}, []string{"result"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(upstreamRequestsTotal, tokenRefreshTotal, chartRendersTotal, accessDecisionsTotal)
}

// ObserveUpstream counts one backend round trip. Status 0 means the request
// never got a response.
func ObserveUpstream(method string, status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	upstreamRequestsTotal.WithLabelValues(method, label).Inc()
}

// IncRefresh counts a token refresh; ok reports whether it succeeded.
func IncRefresh(ok bool) {
	if ok {
		tokenRefreshTotal.WithLabelValues("success").Inc()
		return
	}
	tokenRefreshTotal.WithLabelValues("failure").Inc()
}

// IncChartRender counts a rendered chart of the given kind.
func IncChartRender(kind string) { chartRendersTotal.WithLabelValues(kind).Inc() }

// IncAccessDecision counts an access evaluation.
func IncAccessDecision(allowed bool) {
	if allowed {
		accessDecisionsTotal.WithLabelValues("allowed").Inc()
		return
	}
	accessDecisionsTotal.WithLabelValues("denied").Inc()
}
