package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Metrics holds the Prometheus collectors shared by every clinic component.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	UsersRegistered        prometheus.Counter
	AuthFailures           prometheus.Counter
	SlotsPublished         prometheus.Counter
	CapacityRejections     prometheus.Counter
	AppointmentsBooked     prometheus.Counter
	AppointmentTransitions *prometheus.CounterVec
	PaymentsCompleted      prometheus.Counter
	WellnessEnrollments    *prometheus.CounterVec
	StorageCorrupt         *prometheus.CounterVec
	StorageConflicts       *prometheus.CounterVec
	OperationDuration      *prometheus.HistogramVec
}

// New registers all collectors with reg. Pass prometheus.DefaultRegisterer
// in the process and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "carebook_users_registered_total",
			Help: "Total number of users registered",
		}),
		AuthFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "carebook_auth_failures_total",
			Help: "Total number of rejected authentication attempts",
		}),
		SlotsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "carebook_slots_published_total",
			Help: "Total number of availability slots published",
		}),
		CapacityRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "carebook_capacity_rejections_total",
			Help: "Total number of reservations rejected because a slot was full",
		}),
		AppointmentsBooked: f.NewCounter(prometheus.CounterOpts{
			Name: "carebook_appointments_booked_total",
			Help: "Total number of appointments booked",
		}),
		AppointmentTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carebook_appointment_transitions_total",
			Help: "Appointment status transitions by target status",
		}, []string{"status"}),
		PaymentsCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "carebook_payments_completed_total",
			Help: "Total number of completed payments",
		}),
		WellnessEnrollments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carebook_wellness_enrollments_total",
			Help: "Wellness program enrollment attempts by outcome",
		}, []string{"outcome"}),
		StorageCorrupt: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carebook_storage_corrupt_total",
			Help: "Collections that failed to decode and were treated as empty",
		}, []string{"collection"}),
		StorageConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carebook_storage_conflicts_total",
			Help: "Optimistic version conflicts that forced a retry",
		}, []string{"collection"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carebook_operation_duration_seconds",
			Help:    "Duration of clinic operations",
			Buckets: durationBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementUsersRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

func (m *Metrics) IncrementAuthFailures() {
	if m == nil {
		return
	}
	m.AuthFailures.Inc()
}

func (m *Metrics) IncrementSlotsPublished() {
	if m == nil {
		return
	}
	m.SlotsPublished.Inc()
}

func (m *Metrics) IncrementCapacityRejections() {
	if m == nil {
		return
	}
	m.CapacityRejections.Inc()
}

func (m *Metrics) IncrementAppointmentsBooked() {
	if m == nil {
		return
	}
	m.AppointmentsBooked.Inc()
}

func (m *Metrics) IncrementTransition(status string) {
	if m == nil {
		return
	}
	m.AppointmentTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementPaymentsCompleted() {
	if m == nil {
		return
	}
	m.PaymentsCompleted.Inc()
}

// IncrementWellnessEnrollment counts an enrollment attempt; outcome is
// "enrolled" or "full".
func (m *Metrics) IncrementWellnessEnrollment(outcome string) {
	if m == nil {
		return
	}
	m.WellnessEnrollments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementStorageCorrupt(collection string) {
	if m == nil {
		return
	}
	m.StorageCorrupt.WithLabelValues(collection).Inc()
}

func (m *Metrics) IncrementStorageConflict(collection string) {
	if m == nil {
		return
	}
	m.StorageConflicts.WithLabelValues(collection).Inc()
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
