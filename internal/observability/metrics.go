package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain collectors. Label values are drawn from small fixed sets
// (command kinds, store operations, outcomes) so cardinality stays bounded.
var (
	// LedgerCommands counts handled commands by kind and outcome.
	LedgerCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_commands_total",
			Help: "Total number of ledger commands handled.",
		},
		[]string{"kind", "outcome"},
	)

	// LedgerStoreOps counts ledger store calls by operation and outcome.
	LedgerStoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_store_ops_total",
			Help: "Total number of ledger store operations.",
		},
		[]string{"op", "outcome"},
	)

	// LedgerStoreLatency records ledger store call duration in seconds.
	LedgerStoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_store_duration_seconds",
			Help:    "Duration of ledger store operations in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// LedgerCacheRequests counts read-cache lookups by result (hit|miss).
	LedgerCacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_cache_requests_total",
			Help: "Total number of ledger read-cache lookups.",
		},
		[]string{"result"},
	)

	// MessengerSends counts outbound Send API calls by outcome (ok|error).
	MessengerSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messenger_send_total",
			Help: "Total number of outbound Messenger send attempts.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(LedgerCommands, LedgerStoreOps, LedgerStoreLatency, LedgerCacheRequests, MessengerSends)
}

// OutcomeLabel maps an error to the "ok"/"error" label value.
func OutcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
