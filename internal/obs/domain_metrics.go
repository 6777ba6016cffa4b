package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// EvaluationsTotal counts per-vendor discount evaluation outcomes.
	EvaluationsTotal *prometheus.CounterVec
	// VendorsSkippedTotal counts vendor groups skipped during evaluation by reason.
	VendorsSkippedTotal *prometheus.CounterVec
	// PersistFailuresTotal counts discount rows that could not be written synchronously.
	PersistFailuresTotal prometheus.Counter
	// DiscountAmountCents records the distribution of applied discount amounts.
	DiscountAmountCents prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		EvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_evaluations_total",
			Help:      "Count of per-vendor discount evaluations by outcome.",
		}, []string{"result"})
		VendorsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendors_skipped_total",
			Help:      "Count of vendor groups skipped during evaluation by reason.",
		}, []string{"reason"})
		PersistFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Number of applied discounts that failed to persist synchronously.",
		})
		DiscountAmountCents = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discount_amount_cents",
			Help:      "Distribution of applied discount amounts in cents.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000},
		})

		mustRegisterCollector(reg, EvaluationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				EvaluationsTotal = v
			}
		})
		mustRegisterCollector(reg, VendorsSkippedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				VendorsSkippedTotal = v
			}
		})
		mustRegisterCollector(reg, PersistFailuresTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PersistFailuresTotal = v
			}
		})
		mustRegisterCollector(reg, DiscountAmountCents, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				DiscountAmountCents = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
