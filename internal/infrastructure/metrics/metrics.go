package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Set holds the counters exported by the integration layer.
type Set struct {
	TransitionsApplied *prometheus.CounterVec
	TransitionsNoOp    *prometheus.CounterVec
	SyncFailures       *prometheus.CounterVec
	CatalogItems       *prometheus.CounterVec
	CredentialGrants   *prometheus.CounterVec
}

// NewSet registers the counter set on the given registerer. Tests pass a
// fresh prometheus.NewRegistry to keep registrations isolated.
func NewSet(reg prometheus.Registerer) *Set {
	s := &Set{
		TransitionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_transitions_applied_total",
			Help: "Genuine order status transitions committed.",
		}, []string{"status", "source"}),
		TransitionsNoOp: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_transitions_noop_total",
			Help: "Duplicate or racing status observations dropped.",
		}, []string{"source"}),
		SyncFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "downstream_sync_failures_total",
			Help: "Tenant/ERP/Hub push failures healed by the next tick.",
		}, []string{"target"}),
		CatalogItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_items_processed_total",
			Help: "Catalog items seen by the import loop.",
		}, []string{"outcome"}),
		CredentialGrants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credential_grants_total",
			Help: "Login and refresh grants performed per outcome.",
		}, []string{"grant", "outcome"}),
	}

	reg.MustRegister(
		s.TransitionsApplied,
		s.TransitionsNoOp,
		s.SyncFailures,
		s.CatalogItems,
		s.CredentialGrants,
	)

	return s
}
