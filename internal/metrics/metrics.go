package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by both counters.
const (
	OutcomeIssued    = "issued"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
	OutcomeVerified  = "verified"
	OutcomeMismatch  = "mismatch"
	OutcomeNotFound  = "not_found"
	OutcomeFault     = "fault"
)

var (
	issuanceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credmesh_issuance_total",
			Help: "Credential issuance attempts by outcome.",
		},
		[]string{"outcome"},
	)

	verificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credmesh_verifications_total",
			Help: "Credential verification attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Init registers the counters with the default registry. Call once per
// process, before serving traffic.
func Init() {
	prometheus.MustRegister(issuanceTotal, verificationsTotal)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordIssuance counts one issuance attempt.
func RecordIssuance(outcome string) {
	issuanceTotal.WithLabelValues(outcome).Inc()
}

// RecordVerification counts one verification attempt.
func RecordVerification(outcome string) {
	verificationsTotal.WithLabelValues(outcome).Inc()
}
