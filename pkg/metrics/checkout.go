package metrics

import "github.com/prometheus/client_golang/prometheus"

// Finalize result labels.
const (
	FinalizeResultCreated  = "created"
	FinalizeResultReplayed = "replayed"
	FinalizeResultFailed   = "failed"
)

// CheckoutMetrics counts finalization outcomes.
type CheckoutMetrics struct {
	finalize *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout counters on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	finalize := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_finalize_total",
		Help: "Order finalization attempts by result.",
	}, []string{"result", "provider"})
	reg.MustRegister(finalize)
	return &CheckoutMetrics{finalize: finalize}
}

// IncFinalize increments the finalize counter for the given result/provider.
func (m *CheckoutMetrics) IncFinalize(result, provider string) {
	if m == nil || m.finalize == nil {
		return
	}
	m.finalize.WithLabelValues(result, provider).Inc()
}
