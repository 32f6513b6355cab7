package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Znbmels/keremet/internal/clinic"
)

// Doctors lists the doctor directory, optionally filtered by specialty.
func (c *Client) Doctors(ctx context.Context, specialty clinic.Specialty) ([]clinic.Doctor, error) {
	query := url.Values{}
	if specialty != "" {
		query.Set("specialty", string(specialty))
	}
	var doctors []clinic.Doctor
	if err := c.do(ctx, request{
		op:     "doctors.list",
		method: http.MethodGet,
		base:   c.apiBase,
		path:   "/doctors/",
		query:  query,
	}, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

// Doctor fetches a single directory entry.
func (c *Client) Doctor(ctx context.Context, id int64) (*clinic.Doctor, error) {
	var doctor clinic.Doctor
	if err := c.do(ctx, request{
		op:     "doctors.get",
		method: http.MethodGet,
		base:   c.apiBase,
		path:   fmt.Sprintf("/doctors/%d/", id),
	}, &doctor); err != nil {
		return nil, err
	}
	return &doctor, nil
}

// TimeSlotQuery filters the slot listing. Zero values are omitted.
type TimeSlotQuery struct {
	Date     time.Time
	DoctorID int64
}

// TimeSlots lists slots. Patients pass a doctor ID; doctors get their own
// schedule, optionally narrowed to a date.
func (c *Client) TimeSlots(ctx context.Context, q TimeSlotQuery) ([]clinic.TimeSlot, error) {
	query := url.Values{}
	if !q.Date.IsZero() {
		query.Set("date", q.Date.Format("2006-01-02"))
	}
	if q.DoctorID != 0 {
		query.Set("doctor", strconv.FormatInt(q.DoctorID, 10))
	}
	var slots []clinic.TimeSlot
	if err := c.do(ctx, request{
		op:     "timeslots.list",
		method: http.MethodGet,
		base:   c.apiBase,
		path:   "/doctor/time-slots/",
		query:  query,
	}, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// CreateTimeSlotRequest is a new slot interval. Validation of the interval
// itself happens in the schedule manager before this call is made.
type CreateTimeSlotRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// CreateTimeSlot creates a slot on the calling doctor's schedule.
func (c *Client) CreateTimeSlot(ctx context.Context, req CreateTimeSlotRequest) (*clinic.TimeSlot, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var slot clinic.TimeSlot
	if err := c.do(ctx, request{
		op:     "timeslots.create",
		method: http.MethodPost,
		base:   c.apiBase,
		path:   "/doctor/time-slots/",
		body:   body,
	}, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// DeleteTimeSlot removes an unbooked slot. The server rejects deletion of
// booked slots regardless of what the client asked.
func (c *Client) DeleteTimeSlot(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		op:     "timeslots.delete",
		method: http.MethodDelete,
		base:   c.apiBase,
		path:   fmt.Sprintf("/doctor/time-slots/%d/", id),
	}, nil)
}
