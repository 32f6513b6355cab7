package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Znbmels/keremet/internal/clinic"
)

// CreateAppointment reserves a slot. The backend creates the appointment and
// marks the slot booked atomically; a raced slot comes back as a 4xx.
func (c *Client) CreateAppointment(ctx context.Context, doctorID, timeSlotID int64) (*clinic.Appointment, error) {
	body, err := jsonBody(map[string]int64{
		"doctor_id":    doctorID,
		"time_slot_id": timeSlotID,
	})
	if err != nil {
		return nil, err
	}
	var appt clinic.Appointment
	if err := c.do(ctx, request{
		op:     "appointments.create",
		method: http.MethodPost,
		base:   c.apiBase,
		path:   "/appointments/",
		body:   body,
	}, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// UpdateAppointmentStatus moves an appointment to a new status. Transition
// rules are checked by the schedule manager before this call.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, id int64, status clinic.AppointmentStatus) (*clinic.Appointment, error) {
	body, err := jsonBody(map[string]clinic.AppointmentStatus{"status": status})
	if err != nil {
		return nil, err
	}
	var appt clinic.Appointment
	if err := c.do(ctx, request{
		op:     "appointments.update_status",
		method: http.MethodPatch,
		base:   c.apiBase,
		path:   fmt.Sprintf("/appointments/%d/", id),
		body:   body,
	}, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

func dashboardPrefix(role clinic.Role) string {
	if role == clinic.RoleDoctor {
		return "/doctor"
	}
	return "/patient"
}

// UpcomingAppointments lists the dashboard's upcoming appointments for the
// given role.
func (c *Client) UpcomingAppointments(ctx context.Context, role clinic.Role) ([]clinic.Appointment, error) {
	var appts []clinic.Appointment
	if err := c.do(ctx, request{
		op:     "appointments.upcoming",
		method: http.MethodGet,
		base:   c.apiBase,
		path:   dashboardPrefix(role) + "/dashboard/appointments/upcoming/",
	}, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// AppointmentHistory lists past appointments for the given role.
func (c *Client) AppointmentHistory(ctx context.Context, role clinic.Role) ([]clinic.Appointment, error) {
	var appts []clinic.Appointment
	if err := c.do(ctx, request{
		op:     "appointments.history",
		method: http.MethodGet,
		base:   c.apiBase,
		path:   dashboardPrefix(role) + "/dashboard/appointments/history/",
	}, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}
