package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry service.
type Metrics struct {
	RegistrationsSubmitted prometheus.Counter
	RegistrationsApproved  prometheus.Counter
	RegistrationsRejected  prometheus.Counter
	IdentitiesCreated      prometheus.Counter
	IdentitiesDeleted      prometheus.Counter
	AuditEntriesWritten    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civreg_registrations_submitted_total",
			Help: "Total registration requests submitted",
		}),
		RegistrationsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civreg_registrations_approved_total",
			Help: "Total registration requests approved",
		}),
		RegistrationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civreg_registrations_rejected_total",
			Help: "Total registration requests rejected",
		}),
		IdentitiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civreg_identities_created_total",
			Help: "Total identities created in the registry",
		}),
		IdentitiesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civreg_identities_deleted_total",
			Help: "Total identities deleted from the registry",
		}),
		AuditEntriesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civreg_audit_entries_written_total",
			Help: "Total audit log entries written",
		}),
	}
}
