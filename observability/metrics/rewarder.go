package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// RewarderMetrics aggregates the counters exposed by the ledger daemon.
type RewarderMetrics struct {
	mints         *prometheus.CounterVec
	fills         prometheus.Counter
	claims        prometheus.Counter
	claimRejects  *prometheus.CounterVec
	rpcRequests   *prometheus.CounterVec
	rpcRateLimits prometheus.Counter
}

var (
	rewarderOnce     sync.Once
	rewarderRegistry *RewarderMetrics
)

// Rewarder returns the process-wide metrics registry, registering the
// collectors on first use.
func Rewarder() *RewarderMetrics {
	rewarderOnce.Do(func() {
		rewarderRegistry = &RewarderMetrics{
			mints: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "referral_mints_total",
				Help: "Count of referral token mints by kind (og or public).",
			}, []string{"kind"}),
			fills: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewarder_fills_total",
				Help: "Count of reward pool deposits.",
			}),
			claims: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewarder_claims_total",
				Help: "Count of successful reward claims.",
			}),
			claimRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewarder_claim_rejects_total",
				Help: "Count of rejected claims by reason.",
			}, []string{"reason"}),
			rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rpc_requests_total",
				Help: "Count of JSON-RPC requests by method.",
			}, []string{"method"}),
			rpcRateLimits: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rpc_rate_limited_total",
				Help: "Count of requests rejected by the rate limiter.",
			}),
		}
		prometheus.MustRegister(
			rewarderRegistry.mints,
			rewarderRegistry.fills,
			rewarderRegistry.claims,
			rewarderRegistry.claimRejects,
			rewarderRegistry.rpcRequests,
			rewarderRegistry.rpcRateLimits,
		)
	})
	return rewarderRegistry
}

// ObserveMint records a referral mint of the given kind.
func (m *RewarderMetrics) ObserveMint(kind string) {
	if m == nil {
		return
	}
	m.mints.WithLabelValues(kind).Inc()
}

// ObserveFill records a pool deposit.
func (m *RewarderMetrics) ObserveFill() {
	if m == nil {
		return
	}
	m.fills.Inc()
}

// ObserveClaim records a successful claim.
func (m *RewarderMetrics) ObserveClaim() {
	if m == nil {
		return
	}
	m.claims.Inc()
}

// ObserveClaimReject records a rejected claim with its reason label.
func (m *RewarderMetrics) ObserveClaimReject(reason string) {
	if m == nil {
		return
	}
	m.claimRejects.WithLabelValues(reason).Inc()
}

// ObserveRPCRequest records an incoming JSON-RPC call.
func (m *RewarderMetrics) ObserveRPCRequest(method string) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(method).Inc()
}

// ObserveRateLimited records a request rejected by the rate limiter.
func (m *RewarderMetrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rpcRateLimits.Inc()
}
