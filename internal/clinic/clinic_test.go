package clinic

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appointment "carebook/internal/appointment/models"
	slots "carebook/internal/availability/models"
	identity "carebook/internal/identity/models"
	payment "carebook/internal/payment/models"
	wellness "carebook/internal/wellness/models"
	"carebook/internal/platform/config"
	"carebook/internal/platform/metrics"
	"carebook/internal/store"
	"carebook/internal/store/file"
	"carebook/internal/store/memory"
	id "carebook/pkg/domain"
	dErrors "carebook/pkg/domain-errors"
	"carebook/pkg/platform/audit"
	"carebook/pkg/platform/audit/publisher"
	auditmemory "carebook/pkg/platform/audit/store/memory"
	bdd "carebook/pkg/testutil"
)

const (
	drSmith = id.UserID("1")
	johnDoe = id.UserID("4")
	janeSm  = id.UserID("5")
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Backend.Kind = config.BackendMemory
	cfg.Payment.Delay = 0
	cfg.Auth.BcryptCost = 4
	return cfg
}

func newCore(t *testing.T, cfg config.Config, backend store.Backend, opts ...Option) *Core {
	t.Helper()
	if backend == nil {
		backend = memory.New()
	}
	core, err := New(store.New(backend, StoreOptions(cfg.Store)...), cfg, opts...)
	require.NoError(t, err)
	_, err = core.Seed(context.Background())
	require.NoError(t, err)
	return core
}

var card = payment.CardDetails{Number: "4242-4242-4242-4242", Holder: "John Doe", Expiry: "09/28", CVV: "321"}

func TestRegisterAndAuthenticate(t *testing.T) {
	core := newCore(t, testConfig(), nil)
	ctx := bdd.ActionContext(t, "")

	bdd.Given(t, "a new patient registers", func(t *testing.T) {
		jane, err := core.Identity.Register(ctx, identity.UserDraft{
			Name: "Jane", Email: "jane@x.com", Secret: "abcdef", Phone: "+1-555-0199",
			Role: id.RolePatient, Address: "1 Elm St", DateOfBirth: "1992-01-01", Gender: "female",
		})
		require.NoError(t, err)

		bdd.Then(t, "she can authenticate as a patient", func(t *testing.T) {
			got, err := core.Identity.Authenticate(ctx, "jane@x.com", "abcdef", id.RolePatient)
			require.NoError(t, err)
			assert.Equal(t, jane.ID, got.ID)
		})

		bdd.Then(t, "the email cannot be registered twice", func(t *testing.T) {
			_, err := core.Identity.Register(ctx, identity.UserDraft{
				Name: "Other", Email: "JANE@x.com", Secret: "ghijkl", Phone: "+1-555-0198",
				Role: id.RoleDoctor, Specialization: "Dermatology",
			})
			assert.True(t, dErrors.HasCode(err, dErrors.CodeDuplicateEmail), "got %v", err)
		})

		bdd.Then(t, "a session token names the user and role", func(t *testing.T) {
			token, err := core.Sessions.Issue(jane)
			require.NoError(t, err)
			claims, err := core.Sessions.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, jane.ID, claims.UserID)
			assert.Equal(t, id.RolePatient, claims.Role)
		})
	})
}

func TestConcurrentBookingOfLastPlace(t *testing.T) {
	cases := []struct {
		name      string
		mode      string
		enforce   bool
		succeeded int
	}{
		{"serialized with capacity enforcement", config.ModeSerialized, true, 1},
		{"serialized without capacity enforcement", config.ModeSerialized, false, 2},
		{"unguarded without capacity enforcement", config.ModeUnguarded, false, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Store.ConcurrencyMode = tc.mode
			cfg.Booking.EnforceCapacity = tc.enforce
			core := newCore(t, cfg, nil)
			ctx := context.Background()

			slot, err := core.Availability.Publish(ctx, drSmith, slots.SlotDraft{
				Date: "2024-06-01", StartTime: "09:00", EndTime: "10:00", MaxPatients: 1,
			})
			require.NoError(t, err)

			var wg sync.WaitGroup
			results := make([]error, 2)
			for i, patient := range []id.UserID{johnDoe, janeSm} {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, results[i] = core.Appointments.Book(ctx, appointment.BookingRequest{
						PatientID: patient, DoctorID: drSmith, Date: "2024-06-01", Time: "09:00",
					})
				}()
			}
			wg.Wait()

			succeeded := 0
			for _, err := range results {
				if err == nil {
					succeeded++
					continue
				}
				assert.True(t, dErrors.HasCode(err, dErrors.CodeCapacityExceeded), "got %v", err)
			}
			assert.Equal(t, tc.succeeded, succeeded)

			got, err := core.Availability.Get(ctx, slot.ID)
			require.NoError(t, err)
			assert.LessOrEqual(t, got.CurrentPatients, got.MaxPatients)

			stored, err := core.Appointments.ListAll(ctx)
			require.NoError(t, err)
			if tc.mode == config.ModeSerialized {
				assert.Len(t, stored, tc.succeeded)
			} else {
				// blind writes may drop one of the two records
				assert.NotEmpty(t, stored)
				assert.LessOrEqual(t, len(stored), 2)
			}
		})
	}
}

func TestPayAndTransition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	auditStore := auditmemory.NewInMemoryStore()
	pub := publisher.NewPublisher(auditStore)
	core := newCore(t, testConfig(), nil, WithMetrics(m), WithAuditPublisher(pub))
	ctx := bdd.ActionContext(t, johnDoe)

	appt, err := core.Appointments.Book(ctx, appointment.BookingRequest{
		PatientID: johnDoe, DoctorID: drSmith, Date: "2024-06-01", Time: "09:30",
		Fee: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	bdd.When(t, "the patient pays", func(t *testing.T) {
		p, err := core.Payments.Pay(ctx, appt.ID, card)
		require.NoError(t, err)
		assert.Equal(t, "100", p.Amount.String())

		stored, err := core.Appointments.Get(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, appointment.PaymentPaid, stored.PaymentStatus)

		_, err = core.Payments.Pay(ctx, appt.ID, card)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyPaid), "got %v", err)
	})

	bdd.When(t, "the doctor completes the visit", func(t *testing.T) {
		_, err := core.Appointments.Transition(ctx, appt.ID, appointment.StatusCompleted)
		require.NoError(t, err)
		_, err = core.Appointments.Transition(ctx, appt.ID, appointment.StatusCancelled)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition), "got %v", err)
	})

	bdd.Then(t, "dashboards reflect the visit", func(t *testing.T) {
		sys, err := core.Stats.System(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, sys.TotalUsers)
		assert.Equal(t, 1, sys.Completed)
		assert.Equal(t, "100", sys.Revenue.String())

		doc, err := core.Stats.Doctor(ctx, drSmith)
		require.NoError(t, err)
		assert.Equal(t, 1, doc.UniquePatients)
		assert.Equal(t, 1, doc.Completed)
	})

	bdd.Then(t, "metrics and audit trail record the actions", func(t *testing.T) {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.AppointmentsBooked))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentsCompleted))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.AppointmentTransitions.WithLabelValues("completed")))

		events, err := pub.List(ctx, johnDoe)
		require.NoError(t, err)
		actions := make([]string, 0, len(events))
		for _, e := range events {
			actions = append(actions, e.Action)
		}
		assert.Contains(t, actions, string(audit.EventAppointmentBooked))
		assert.Contains(t, actions, string(audit.EventPaymentCompleted))
		assert.Contains(t, actions, string(audit.EventPaymentRejected))
		assert.Contains(t, actions, string(audit.EventAppointmentCompleted))
	})
}

func TestWellnessCatalog(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	core := newCore(t, testConfig(), nil, WithMetrics(m))
	ctx := bdd.ActionContext(t, "3")

	var programID id.ProgramID
	bdd.Given(t, "an admin publishes a limited program", func(t *testing.T) {
		p, err := core.Wellness.Publish(ctx, wellness.ProgramDraft{
			Name: "Stress Less", Category: "STRESS_MANAGEMENT", DurationMinutes: 45,
			Price: decimal.NewFromInt(30), MaxParticipants: 1,
		})
		require.NoError(t, err)
		programID = p.ID
	})

	bdd.When(t, "two patients try to enroll", func(t *testing.T) {
		_, err := core.Wellness.Enroll(ctx, programID, johnDoe)
		require.NoError(t, err)
		_, err = core.Wellness.Enroll(ctx, programID, janeSm)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCapacityExceeded), "got %v", err)
	})

	bdd.Then(t, "the program is full and counted", func(t *testing.T) {
		available, err := core.Wellness.ListAvailable(ctx)
		require.NoError(t, err)
		assert.Empty(t, available)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.WellnessEnrollments.WithLabelValues("enrolled")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.WellnessEnrollments.WithLabelValues("full")))

		snap, err := core.Store.Snapshot(ctx, store.Wellness)
		require.NoError(t, err)
		assert.NotZero(t, snap[store.Wellness].Version)
	})
}

func TestFileBackendSurvivesRestartAndCorruption(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Backend.Kind = config.BackendFile

	backend, err := file.New(dir)
	require.NoError(t, err)
	core := newCore(t, cfg, backend)
	ctx := context.Background()
	_, err = core.Appointments.Book(ctx, appointment.BookingRequest{
		PatientID: johnDoe, DoctorID: drSmith, Date: "2024-06-01", Time: "09:00",
	})
	require.NoError(t, err)

	t.Run("records survive a restart", func(t *testing.T) {
		reopened, err := file.New(dir)
		require.NoError(t, err)
		again := newCore(t, cfg, reopened)
		all, err := again.Appointments.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
		users, err := again.Identity.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 5)
	})

	t.Run("a corrupt collection reads as empty", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, store.Appointments+".json"), []byte("{not json"), 0o600))
		reopened, err := file.New(dir)
		require.NoError(t, err)
		again := newCore(t, cfg, reopened)
		all, err := again.Appointments.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		_, err = again.Appointments.Book(ctx, appointment.BookingRequest{
			PatientID: janeSm, DoctorID: drSmith, Date: "2024-06-02", Time: "09:00",
		})
		require.NoError(t, err)
		all, err = again.Appointments.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestNew_RejectsBadFee(t *testing.T) {
	cfg := testConfig()
	cfg.Booking.DefaultFee = "free"
	_, err := New(store.New(memory.New()), cfg)
	assert.Error(t, err)
}
