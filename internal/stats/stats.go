// Package stats computes the dashboard figures shown to admins and doctors.
package stats

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	appointment "carebook/internal/appointment/models"
	identity "carebook/internal/identity/models"
	id "carebook/pkg/domain"
)

type UserLister interface {
	ListAll(ctx context.Context) ([]identity.User, error)
}

type AppointmentLister interface {
	ListAll(ctx context.Context) ([]appointment.Appointment, error)
	ListForDoctor(ctx context.Context, doctorID id.UserID) ([]appointment.Appointment, error)
}

type RevenueSource interface {
	Revenue(ctx context.Context, doctorID id.UserID) (decimal.Decimal, error)
}

// SystemStats backs the admin dashboard.
type SystemStats struct {
	TotalUsers        int             `json:"totalUsers"`
	TotalDoctors      int             `json:"totalDoctors"`
	TotalPatients     int             `json:"totalPatients"`
	TotalAppointments int             `json:"totalAppointments"`
	Completed         int             `json:"completedAppointments"`
	Pending           int             `json:"pendingAppointments"`
	Cancelled         int             `json:"cancelledAppointments"`
	Revenue           decimal.Decimal `json:"totalRevenue"`
}

// DoctorStats backs the doctor dashboard.
type DoctorStats struct {
	UniquePatients int             `json:"uniquePatients"`
	Appointments   int             `json:"totalAppointments"`
	Completed      int             `json:"completedAppointments"`
	Scheduled      int             `json:"scheduledAppointments"`
	Cancelled      int             `json:"cancelledAppointments"`
	Revenue        decimal.Decimal `json:"revenue"`
}

type Service struct {
	users        UserLister
	appointments AppointmentLister
	revenue      RevenueSource
}

func New(users UserLister, appointments AppointmentLister, revenue RevenueSource) *Service {
	return &Service{users: users, appointments: appointments, revenue: revenue}
}

func (s *Service) System(ctx context.Context) (*SystemStats, error) {
	var (
		users   []identity.User
		appts   []appointment.Appointment
		revenue decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.users.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		appts, err = s.appointments.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		revenue, err = s.revenue.Revenue(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &SystemStats{
		TotalUsers:        len(users),
		TotalAppointments: len(appts),
		Revenue:           revenue,
	}
	for i := range users {
		switch users[i].Role() {
		case id.RoleDoctor:
			out.TotalDoctors++
		case id.RolePatient:
			out.TotalPatients++
		}
	}
	for _, a := range appts {
		switch a.Status {
		case appointment.StatusCompleted:
			out.Completed++
		case appointment.StatusScheduled:
			out.Pending++
		case appointment.StatusCancelled:
			out.Cancelled++
		}
	}
	return out, nil
}

func (s *Service) Doctor(ctx context.Context, doctorID id.UserID) (*DoctorStats, error) {
	var (
		appts   []appointment.Appointment
		revenue decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		appts, err = s.appointments.ListForDoctor(gctx, doctorID)
		return err
	})
	g.Go(func() error {
		var err error
		revenue, err = s.revenue.Revenue(gctx, doctorID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &DoctorStats{Appointments: len(appts), Revenue: revenue}
	patients := make(map[id.UserID]struct{})
	for _, a := range appts {
		patients[a.PatientID] = struct{}{}
		switch a.Status {
		case appointment.StatusCompleted:
			out.Completed++
		case appointment.StatusScheduled:
			out.Scheduled++
		case appointment.StatusCancelled:
			out.Cancelled++
		}
	}
	out.UniquePatients = len(patients)
	return out, nil
}
