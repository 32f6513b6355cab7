// Package schedule is the doctor-side counterpart of the booking flow:
// managing open slots and moving appointments through their lifecycle.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Znbmels/keremet/internal/apiclient"
	"github.com/Znbmels/keremet/internal/clinic"
	"github.com/Znbmels/keremet/pkg/logging"
)

var (
	// ErrEmptyInterval signals a missing start or end time. Checked before
	// any network call is made.
	ErrEmptyInterval = errors.New("schedule: start and end time are required")
	// ErrInvalidInterval signals start >= end. Checked before any network
	// call; the server stays authoritative on overlap and validity.
	ErrInvalidInterval = errors.New("schedule: start time must be before end time")
	// ErrSlotBooked refuses deletion of a booked slot client-side. The
	// server enforces the same rule.
	ErrSlotBooked = errors.New("schedule: booked slots cannot be deleted")
	// ErrBadTransition refuses a status change the lifecycle does not allow.
	ErrBadTransition = errors.New("schedule: appointment status transition not allowed")

	errSlotUnknown = errors.New("schedule: slot not in local list")
)

// API is the slice of the API client the manager needs.
type API interface {
	TimeSlots(ctx context.Context, q apiclient.TimeSlotQuery) ([]clinic.TimeSlot, error)
	CreateTimeSlot(ctx context.Context, req apiclient.CreateTimeSlotRequest) (*clinic.TimeSlot, error)
	DeleteTimeSlot(ctx context.Context, id int64) error
	UpdateAppointmentStatus(ctx context.Context, id int64, status clinic.AppointmentStatus) (*clinic.Appointment, error)
}

// Manager keeps the doctor's local slot list in sync with the backend. Local
// state is only patched after the server confirms a mutation, never before.
type Manager struct {
	api    API
	logger *logging.Logger

	mu    sync.Mutex
	slots []clinic.TimeSlot
}

// NewManager creates a schedule manager for the signed-in doctor.
func NewManager(api API, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{api: api, logger: logger}
}

// LoadSlots fetches the doctor's schedule, optionally for one date.
func (m *Manager) LoadSlots(ctx context.Context, date time.Time) error {
	slots, err := m.api.TimeSlots(ctx, apiclient.TimeSlotQuery{Date: date})
	if err != nil {
		return fmt.Errorf("schedule: load slots: %w", err)
	}
	m.mu.Lock()
	m.slots = slots
	m.mu.Unlock()
	return nil
}

// Slots returns a copy of the local slot list.
func (m *Manager) Slots() []clinic.TimeSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]clinic.TimeSlot, len(m.slots))
	copy(out, m.slots)
	return out
}

// CreateSlot validates the interval locally and creates the slot. An invalid
// interval is rejected before any request is issued.
func (m *Manager) CreateSlot(ctx context.Context, start, end time.Time) (*clinic.TimeSlot, error) {
	if start.IsZero() || end.IsZero() {
		return nil, ErrEmptyInterval
	}
	if !start.Before(end) {
		return nil, ErrInvalidInterval
	}

	slot, err := m.api.CreateTimeSlot(ctx, apiclient.CreateTimeSlotRequest{StartTime: start, EndTime: end})
	if err != nil {
		return nil, fmt.Errorf("schedule: create slot: %w", err)
	}

	// Patch the local list only after the server confirmed.
	m.mu.Lock()
	m.slots = append(m.slots, *slot)
	m.mu.Unlock()
	m.logger.Info("slot created", "slot_id", slot.ID, "start", start, "end", end)
	return slot, nil
}

// CanDeleteSlot reports whether the delete action should be offered at all.
func CanDeleteSlot(slot clinic.TimeSlot) bool {
	return slot.Selectable()
}

// DeleteSlot removes an unbooked slot. Booked slots are refused locally
// before any request; the local list shrinks only after the server confirms.
func (m *Manager) DeleteSlot(ctx context.Context, id int64) error {
	m.mu.Lock()
	idx := -1
	for i, s := range m.slots {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		m.mu.Unlock()
		return errSlotUnknown
	}
	if !CanDeleteSlot(m.slots[idx]) {
		m.mu.Unlock()
		return ErrSlotBooked
	}
	m.mu.Unlock()

	if err := m.api.DeleteTimeSlot(ctx, id); err != nil {
		return fmt.Errorf("schedule: delete slot: %w", err)
	}

	m.mu.Lock()
	for i, s := range m.slots {
		if s.ID == id {
			m.slots = append(m.slots[:i], m.slots[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	m.logger.Info("slot deleted", "slot_id", id)
	return nil
}

// AllowedTransitions lists the target statuses the UI may offer for an
// appointment: COMPLETED and CANCELED for scheduled ones, nothing otherwise.
func AllowedTransitions(appt clinic.Appointment) []clinic.AppointmentStatus {
	if appt.Status != clinic.AppointmentScheduled {
		return nil
	}
	return []clinic.AppointmentStatus{clinic.AppointmentCompleted, clinic.AppointmentCanceled}
}

// UpdateAppointmentStatus moves an appointment to the target status after
// checking the transition locally.
func (m *Manager) UpdateAppointmentStatus(ctx context.Context, appt clinic.Appointment, to clinic.AppointmentStatus) (*clinic.Appointment, error) {
	if !appt.CanTransition(to) {
		return nil, ErrBadTransition
	}
	updated, err := m.api.UpdateAppointmentStatus(ctx, appt.ID, to)
	if err != nil {
		return nil, fmt.Errorf("schedule: update appointment: %w", err)
	}
	m.logger.Info("appointment status updated", "appointment_id", appt.ID, "status", to)
	return updated, nil
}
