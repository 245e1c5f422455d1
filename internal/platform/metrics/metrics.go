package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SignupsTotal  prometheus.Counter
	LoginsTotal   *prometheus.CounterVec
	VotesAccepted prometheus.Counter
	VotesRejected *prometheus.CounterVec
	TallyCacheHit *prometheus.CounterVec

	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SignupsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ballotgate_signups_total",
			Help: "Total number of identities registered",
		}),
		LoginsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotgate_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		VotesAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ballotgate_votes_accepted_total",
			Help: "Votes recorded in the ledger",
		}),
		VotesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotgate_votes_rejected_total",
			Help: "Rejected cast-vote attempts by reason",
		}, []string{"reason"}),
		TallyCacheHit: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotgate_tally_cache_total",
			Help: "Tally cache lookups by result",
		}, []string{"result"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ballotgate_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),
	}
}

// RecordLogin increments the login counter for an outcome ("ok" or "rejected").
func (m *Metrics) RecordLogin(outcome string) {
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordVoteRejected increments the rejection counter for a reason label.
func (m *Metrics) RecordVoteRejected(reason string) {
	m.VotesRejected.WithLabelValues(reason).Inc()
}
