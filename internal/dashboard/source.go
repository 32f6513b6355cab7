// Package dashboard selects the appointment feed for the signed-in role.
// DOCTOR and PATIENT get separate backend endpoints behind one interface, so
// role never leaks into the views as string comparisons.
package dashboard

import (
	"context"
	"fmt"

	"github.com/Znbmels/keremet/internal/clinic"
)

// API is the slice of the API client the sources need.
type API interface {
	UpcomingAppointments(ctx context.Context, role clinic.Role) ([]clinic.Appointment, error)
	AppointmentHistory(ctx context.Context, role clinic.Role) ([]clinic.Appointment, error)
}

// AppointmentSource feeds the dashboard's appointment lists.
type AppointmentSource interface {
	Role() clinic.Role
	Upcoming(ctx context.Context) ([]clinic.Appointment, error)
	History(ctx context.Context) ([]clinic.Appointment, error)
}

// SourceFor returns the appointment source for a role.
func SourceFor(role clinic.Role, api API) (AppointmentSource, error) {
	switch role {
	case clinic.RoleDoctor:
		return doctorSource{api: api}, nil
	case clinic.RolePatient:
		return patientSource{api: api}, nil
	default:
		return nil, fmt.Errorf("dashboard: no appointment source for role %q", role)
	}
}

type doctorSource struct {
	api API
}

func (s doctorSource) Role() clinic.Role { return clinic.RoleDoctor }

func (s doctorSource) Upcoming(ctx context.Context) ([]clinic.Appointment, error) {
	return s.api.UpcomingAppointments(ctx, clinic.RoleDoctor)
}

func (s doctorSource) History(ctx context.Context) ([]clinic.Appointment, error) {
	return s.api.AppointmentHistory(ctx, clinic.RoleDoctor)
}

type patientSource struct {
	api API
}

func (s patientSource) Role() clinic.Role { return clinic.RolePatient }

func (s patientSource) Upcoming(ctx context.Context) ([]clinic.Appointment, error) {
	return s.api.UpcomingAppointments(ctx, clinic.RolePatient)
}

func (s patientSource) History(ctx context.Context) ([]clinic.Appointment, error) {
	return s.api.AppointmentHistory(ctx, clinic.RolePatient)
}
