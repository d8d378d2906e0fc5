package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginFlowsStarted counts authorization redirects sent to the
	// identity provider.
	LoginFlowsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_login_flows_started_total",
			Help: "The total number of OAuth login flows started.",
		},
	)

	// CallbackResults counts terminal outcomes of the OAuth callback.
	CallbackResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_auth_callback_total",
			Help: "The total number of OAuth callbacks by terminal result.",
		},
		[]string{"result"},
	)

	// TokenExchangeDuration is a histogram of code-for-token exchange time.
	TokenExchangeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_token_exchange_duration_seconds",
			Help:    "A histogram of the token exchange round-trip duration.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// UpstreamRequestDuration is a histogram of customer API GraphQL calls.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_customer_api_request_duration_seconds",
			Help:    "A histogram of Customer Account API request duration.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// UpstreamRequestFailures counts failed customer API GraphQL calls.
	UpstreamRequestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_customer_api_request_failures_total",
			Help: "The total number of failed Customer Account API requests.",
		},
		[]string{"query"},
	)

	// TokenEvictions counts access tokens cleared after the platform
	// rejected them.
	TokenEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_access_token_evictions_total",
			Help: "The total number of access tokens evicted as invalid.",
		},
	)
)
