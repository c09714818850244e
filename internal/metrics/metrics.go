package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginsStarted counts authorization redirects issued.
	LoginsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tunewave_logins_started_total",
			Help: "The total number of authorization redirects issued.",
		},
	)

	// TokenExchanges counts code-for-token exchange attempts by result.
	TokenExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunewave_token_exchanges_total",
			Help: "The total number of authorization code exchanges, by result.",
		},
		[]string{"result"},
	)

	// Logouts counts sessions cleared, by reason: "user" for an explicit
	// logout, "downstream" for a token rejected by the music API.
	Logouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunewave_logouts_total",
			Help: "The total number of sessions cleared, by reason.",
		},
		[]string{"reason"},
	)

	// LibraryRequests counts music API requests made on behalf of pages.
	LibraryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunewave_library_requests_total",
			Help: "The total number of music library requests, by endpoint and result.",
		},
		[]string{"endpoint", "result"},
	)
)
