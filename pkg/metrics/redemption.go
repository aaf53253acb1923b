package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RedemptionMetrics counts wishlist lifecycle outcomes. The redemption counter
// is labeled by outcome so racing terminals show up as conflict spikes.
type RedemptionMetrics struct {
	created     *prometheus.CounterVec
	redemptions *prometheus.CounterVec
	expired     prometheus.Counter
}

// Redemption outcome labels.
const (
	OutcomeRedeemed = "redeemed"
	OutcomeConflict = "conflict"
	OutcomeExpired  = "expired"
	OutcomeInvalid  = "invalid_state"
	OutcomeNotFound = "not_found"
)

// NewRedemptionMetrics registers the wishlist metrics on the provided registerer.
func NewRedemptionMetrics(reg prometheus.Registerer) *RedemptionMetrics {
	if reg == nil {
		return &RedemptionMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wishlists_created_total",
		Help: "Wishlists created, labeled by source surface.",
	}, []string{"source"})
	redemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wishlist_redemptions_total",
		Help: "QR redemption attempts, labeled by outcome.",
	}, []string{"outcome"})
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wishlists_expired_total",
		Help: "Wishlists lazily transitioned to EXPIRED on access.",
	})
	reg.MustRegister(created, redemptions, expired)
	return &RedemptionMetrics{
		created:     created,
		redemptions: redemptions,
		expired:     expired,
	}
}

// IncCreated increments the creation counter for the given source.
func (m *RedemptionMetrics) IncCreated(source string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(source).Inc()
}

// IncRedemption increments the redemption counter for the given outcome.
func (m *RedemptionMetrics) IncRedemption(outcome string) {
	if m == nil || m.redemptions == nil {
		return
	}
	m.redemptions.WithLabelValues(outcome).Inc()
}

// IncExpired increments the lazy-expiration counter.
func (m *RedemptionMetrics) IncExpired() {
	if m == nil || m.expired == nil {
		return
	}
	m.expired.Inc()
}
